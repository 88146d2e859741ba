package sink

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSink publishes each record to a topic at QoS 0. The paho client
// runs its own network loop in the background; we only hand it payloads.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to the broker and returns a ready sink.
func NewMQTT(host string, port int, topic string, logger *slog.Logger) (*MQTTSink, error) {
	logger.Info("starting MQTT connection", "host", host, "port", port)

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", host, port)).
		SetClientID("mavlink-bridge").
		SetKeepAlive(30 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s:%d: %w", host, port, token.Error())
	}

	return &MQTTSink{client: client, topic: topic}, nil
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Publish(payload []byte) error {
	token := s.client.Publish(s.topic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish: %w", token.Error())
	}
	return nil
}

func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
