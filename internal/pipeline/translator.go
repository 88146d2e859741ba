package pipeline

import (
	"encoding/hex"
	"math"

	"mavlink-bridge/internal/mavlink"
)

// uavIDPrefix tags identifiers derived from the UAS ID bytes.
const uavIDPrefix = "D2X-"

// Options are the operator-configured knobs applied to every record.
type Options struct {
	// FlightOperationID is copied verbatim into each record.
	FlightOperationID string
	// AltitudeOffsetMeters corrects for a known geoid/sensor bias.
	AltitudeOffsetMeters float64
	// SetFlyingWhenGrounded forces isFlying=true regardless of the
	// reported flight state. Test escape hatch, intentionally kept.
	SetFlyingWhenGrounded bool
}

// Translate maps one decoded UTM_GLOBAL_POSITION message into a
// TrackingRecord. Pure: no I/O, no failure path, identical input yields
// identical output.
func Translate(msg *mavlink.UTMGlobalPosition, opts Options) TrackingRecord {
	id := hex.EncodeToString(msg.UASID[:])

	vx, vy := float64(msg.VX), float64(msg.VY)
	speed := math.Sqrt(vx*vx+vy*vy) / 100 // cm/s -> m/s
	heading := math.Atan2(vy, vx) / math.Pi * 180
	if heading < 0 {
		heading += 360
	}

	flying := msg.FlightState != mavlink.FlightStateGround &&
		msg.FlightState != mavlink.FlightStateUnknown
	if opts.SetFlyingWhenGrounded {
		flying = true
	}

	return TrackingRecord{
		UAVID:             uavIDPrefix + id[len(id)-8:],
		FlightOperationID: opts.FlightOperationID,
		TimeStamp:         float64(msg.Time) / 1000000, // us -> s
		Coordinate: GeoJSONPoint{
			Type: "Point",
			Coordinates: [2]float64{
				float64(msg.Lon) / 10000000, // degE7 -> deg
				float64(msg.Lat) / 10000000,
			},
		},
		Heading:                heading,
		AltitudeInMeters:       float64(msg.Alt)/1000 + opts.AltitudeOffsetMeters, // mm -> m
		SpeedInMetersPerSecond: speed,
		IsFlying:               flying,
	}
}
