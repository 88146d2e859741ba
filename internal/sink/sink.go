package sink

import (
	"log/slog"

	"mavlink-bridge/internal/observability"
)

// Sink is one outbound delivery target. The two concrete types (AMQP
// queue, MQTT topic) hide their destination and connection details so
// the fanout can treat them uniformly.
type Sink interface {
	Name() string
	Publish(payload []byte) error
	Close()
}

// Result is the per-sink outcome of one fanout.
type Result struct {
	Sink string
	Err  error
}

// Outcome reports one Result per enabled sink, in sink order.
type Outcome []Result

// Failed counts the sinks that rejected the payload.
func (o Outcome) Failed() int {
	n := 0
	for _, r := range o {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Fanout offers the same serialized payload to every sink. A failure is
// logged as a warning and reported in the outcome; it never prevents the
// remaining sinks from being attempted and never reaches the caller as
// an error. Failed publishes are dropped, not retried.
func Fanout(payload []byte, sinks []Sink, logger *slog.Logger) Outcome {
	out := make(Outcome, 0, len(sinks))
	for _, s := range sinks {
		observability.PublishTotal.WithLabelValues(s.Name()).Inc()
		err := s.Publish(payload)
		if err != nil {
			observability.PublishErrors.WithLabelValues(s.Name()).Inc()
			logger.Warn("publish failed, message dropped", "sink", s.Name(), "err", err)
		}
		out = append(out, Result{Sink: s.Name(), Err: err})
	}
	return out
}
