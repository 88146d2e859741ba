package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mavlink-bridge/internal/link"
	"mavlink-bridge/internal/mavlink"
	"mavlink-bridge/internal/observability"
	"mavlink-bridge/internal/pipeline"
	"mavlink-bridge/internal/sink"
)

// Bridge ties the telemetry link to the sinks: one blocking receive per
// iteration, translate, fan out, repeat. It owns its link and sinks for
// the process lifetime; nothing else touches them.
type Bridge struct {
	Link      *link.Link
	Sinks     []sink.Sink
	Translate pipeline.Options
	Handshake link.Handshake
	Logger    *slog.Logger
}

// Run drives the loop through its three states: connecting (heartbeat
// handshake on connectionless transports), streaming, terminated. A
// transport error once streaming is fatal; there is no path back to
// connecting. Sink failures stay inside the iteration.
func (b *Bridge) Run() error {
	if b.Link.Connectionless() {
		if err := b.Handshake.Establish(b.Link); err != nil {
			return err
		}
	}

	for {
		f, err := b.Link.Recv(mavlink.MsgIDUTMGlobalPosition, 0)
		if err != nil {
			return fmt.Errorf("bridge: receive: %w", err)
		}
		observability.MessagesReceived.Inc()

		start := time.Now()
		msg := mavlink.UnmarshalUTMGlobalPosition(f)
		b.Logger.Debug("message received",
			"src_system", msg.SrcSystem, "src_component", msg.SrcComponent)

		rec := pipeline.Translate(msg, b.Translate)
		payload, err := json.Marshal(&rec)
		if err != nil {
			b.Logger.Warn("record serialization failed", "err", err)
			continue
		}
		observability.ObserveTranslateLatency(start)

		b.Logger.Info("tracked",
			"uavId", rec.UAVID,
			"lat", rec.Coordinate.Coordinates[1],
			"lon", rec.Coordinate.Coordinates[0],
			"alt_m", rec.AltitudeInMeters,
			"state", rec.FlyState(),
			"speed_mps", rec.SpeedInMetersPerSecond,
			"heading_deg", rec.Heading)

		sink.Fanout(payload, b.Sinks, b.Logger)
	}
}
