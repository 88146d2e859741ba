package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// AMQP holds the queue-style sink parameters. All fields are required
// for the sink to be enabled.
type AMQP struct {
	Host     string
	Username string
	Password string
	Queue    string
}

// MQTT holds the pub/sub sink parameters. All fields are required for
// the sink to be enabled.
type MQTT struct {
	Host  string
	Port  int
	Topic string
}

type Metrics struct {
	Enabled bool
	Port    string
}

// Settings is the validated configuration. Read-only after Load; the
// rest of the process trusts it without re-checking.
type Settings struct {
	Device string // mavlink device string, e.g. tcp:host:port

	AMQP *AMQP // nil when the section is absent or incomplete
	MQTT *MQTT // nil when the section is absent or incomplete

	AltitudeOffsetMeters  float64
	SetFlyingWhenGrounded bool
	FlightOperationID     string

	Metrics Metrics
}

var amqpKeys = []string{"host", "username", "password", "queue"}
var mqttKeys = []string{"host", "port", "topic"}

// Load reads the YAML settings file and validates the sink sections.
// A sink section missing any of its keys is disabled (each missing key
// is logged); at least one complete sink section is required. The
// device string comes from the CLI override when given, else from
// mavlink.device in the file.
func Load(path, deviceOverride string, logger *slog.Logger) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("altitudeOffsetMeters", 0.0)
	v.SetDefault("setFlyingWhenGrounded", false)
	v.SetDefault("flightOperationId", "USSP-HH-unknwon")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", "9100")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	s := &Settings{
		AltitudeOffsetMeters:  v.GetFloat64("altitudeOffsetMeters"),
		SetFlyingWhenGrounded: v.GetBool("setFlyingWhenGrounded"),
		FlightOperationID:     v.GetString("flightOperationId"),
		Metrics: Metrics{
			Enabled: v.GetBool("metrics.enabled"),
			Port:    v.GetString("metrics.port"),
		},
	}

	if v.IsSet("amqp") && sectionComplete(v, "amqp", amqpKeys, logger) {
		s.AMQP = &AMQP{
			Host:     v.GetString("amqp.host"),
			Username: v.GetString("amqp.username"),
			Password: v.GetString("amqp.password"),
			Queue:    v.GetString("amqp.queue"),
		}
	}
	if v.IsSet("mqtt") && sectionComplete(v, "mqtt", mqttKeys, logger) {
		s.MQTT = &MQTT{
			Host:  v.GetString("mqtt.host"),
			Port:  v.GetInt("mqtt.port"),
			Topic: v.GetString("mqtt.topic"),
		}
	}
	if s.AMQP == nil && s.MQTT == nil {
		return nil, errors.New("config: a valid AMQP or MQTT config is required")
	}

	s.Device = deviceOverride
	if s.Device == "" {
		s.Device = v.GetString("mavlink.device")
	}
	if s.Device == "" {
		return nil, errors.New("config: no MAVLink device specified in config or CLI options")
	}

	return s, nil
}

func sectionComplete(v *viper.Viper, section string, keys []string, logger *slog.Logger) bool {
	complete := true
	for _, key := range keys {
		if !v.IsSet(section + "." + key) {
			logger.Error("key missing from sink config", "section", section, "key", key)
			complete = false
		}
	}
	return complete
}
