package main

import (
	"flag"
	"os"

	"mavlink-bridge/internal/bridge"
	"mavlink-bridge/internal/config"
	"mavlink-bridge/internal/link"
	"mavlink-bridge/internal/observability"
	"mavlink-bridge/internal/pipeline"
	"mavlink-bridge/internal/sink"
)

// Identifiers the bridge announces on the MAVLink side.
const (
	ownSystemID    = 255
	ownComponentID = 0
)

// Distinguished exit codes: 1 for configuration/startup problems, 2 for
// link establishment or a fatal transport error.
const (
	exitConfig = 1
	exitLink   = 2
)

func main() {
	configPath := flag.String("config", "settings.yml", "path to settings file")
	device := flag.String("device", "", "connection address, e.g. tcp:$ip:$port, udpin:$ip:$port")
	verbosity := flag.Int("v", 0, "output and logging verbosity (0=warning, 1=info, 2=debug)")
	flag.Parse()

	logger := observability.NewLogger(*verbosity)

	cfg, err := config.Load(*configPath, *device, logger)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		flag.Usage()
		os.Exit(exitConfig)
	}

	if cfg.Metrics.Enabled {
		go observability.StartMetricsServer(cfg.Metrics.Port)
	}

	var sinks []sink.Sink
	if cfg.AMQP != nil {
		s, err := sink.NewAMQP(cfg.AMQP.Host, cfg.AMQP.Username, cfg.AMQP.Password, cfg.AMQP.Queue, logger)
		if err != nil {
			logger.Error("AMQP connection failed", "err", err)
			os.Exit(exitConfig)
		}
		sinks = append(sinks, s)
	}
	if cfg.MQTT != nil {
		s, err := sink.NewMQTT(cfg.MQTT.Host, cfg.MQTT.Port, cfg.MQTT.Topic, logger)
		if err != nil {
			logger.Error("MQTT connection failed", "err", err)
			os.Exit(exitConfig)
		}
		sinks = append(sinks, s)
	}

	logger.Info("starting MAVLink connection", "device", cfg.Device)
	l, err := link.Connect(cfg.Device, ownSystemID, ownComponentID, logger)
	if err != nil {
		logger.Error("MAVLink connection failed", "err", err)
		os.Exit(exitLink)
	}

	b := &bridge.Bridge{
		Link:  l,
		Sinks: sinks,
		Translate: pipeline.Options{
			FlightOperationID:     cfg.FlightOperationID,
			AltitudeOffsetMeters:  cfg.AltitudeOffsetMeters,
			SetFlyingWhenGrounded: cfg.SetFlyingWhenGrounded,
		},
		Logger: logger,
	}
	if err := b.Run(); err != nil {
		logger.Error("bridge terminated", "err", err)
		os.Exit(exitLink)
	}
}
