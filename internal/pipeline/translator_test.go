package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavlink-bridge/internal/mavlink"
)

func airborneMsg() *mavlink.UTMGlobalPosition {
	return &mavlink.UTMGlobalPosition{
		Time:        1626093600500000,
		Lat:         105000000,
		Lon:         90000000,
		Alt:         1500,
		VX:          300,
		VY:          400,
		FlightState: mavlink.FlightStateAirborne,
	}
}

func TestTranslateUnitConversions(t *testing.T) {
	rec := Translate(airborneMsg(), Options{FlightOperationID: "op-1"})

	assert.Equal(t, 1626093600.5, rec.TimeStamp)
	assert.Equal(t, 10.5, rec.Coordinate.Coordinates[1], "latitude degE7 -> deg")
	assert.Equal(t, 9.0, rec.Coordinate.Coordinates[0], "longitude degE7 -> deg")
	assert.Equal(t, "Point", rec.Coordinate.Type)
	assert.Equal(t, 1.5, rec.AltitudeInMeters)
	assert.Equal(t, 5.0, rec.SpeedInMetersPerSecond, "norm of (300, 400) cm/s")
	assert.Equal(t, "op-1", rec.FlightOperationID)
	assert.True(t, rec.IsFlying)
}

func TestTranslateAltitudeOffset(t *testing.T) {
	rec := Translate(airborneMsg(), Options{AltitudeOffsetMeters: 2.0})
	assert.Equal(t, 3.5, rec.AltitudeInMeters)
}

func TestTranslateHeading(t *testing.T) {
	tests := []struct {
		name    string
		vx, vy  int16
		heading float64
	}{
		{"positive vx", 100, 0, 0},
		{"positive vy", 0, 100, 90},
		{"negative vy wraps to 270, never negative", 0, -100, 270},
		{"negative vx", -100, 0, 180},
		{"stationary", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := airborneMsg()
			msg.VX, msg.VY = tt.vx, tt.vy
			rec := Translate(msg, Options{})
			assert.Equal(t, tt.heading, rec.Heading)
			assert.GreaterOrEqual(t, rec.Heading, 0.0)
			assert.Less(t, rec.Heading, 360.0)
		})
	}
}

func TestTranslateUAVID(t *testing.T) {
	msg := airborneMsg()
	copy(msg.UASID[:], []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0xAB, 0xCD, 0xEF, 0x12})

	rec := Translate(msg, Options{})
	assert.Equal(t, "D2X-abcdef12", rec.UAVID, "last 8 hex chars, lowercase, tagged")
}

func TestTranslateIsFlying(t *testing.T) {
	states := map[uint8]bool{
		mavlink.FlightStateUnknown:   false,
		mavlink.FlightStateGround:    false,
		mavlink.FlightStateAirborne:  true,
		mavlink.FlightStateEmergency: true,
		mavlink.FlightStateNoCtrl:    true,
	}
	for state, flying := range states {
		msg := airborneMsg()
		msg.FlightState = state
		assert.Equal(t, flying, Translate(msg, Options{}).IsFlying, "state %d", state)
	}
}

func TestTranslateFlyingOverride(t *testing.T) {
	msg := airborneMsg()
	msg.FlightState = mavlink.FlightStateGround

	assert.False(t, Translate(msg, Options{}).IsFlying)
	assert.True(t, Translate(msg, Options{SetFlyingWhenGrounded: true}).IsFlying)
}

func TestTranslateIsPure(t *testing.T) {
	msg := airborneMsg()
	opts := Options{FlightOperationID: "op-1", AltitudeOffsetMeters: 1.25}

	a := Translate(msg, opts)
	b := Translate(msg, opts)
	assert.Equal(t, a, b)

	ja, err := json.Marshal(&a)
	require.NoError(t, err)
	jb, err := json.Marshal(&b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb, "serialized form must be byte-identical")
}

func TestTrackingRecordWireSchema(t *testing.T) {
	msg := airborneMsg()
	msg.VX, msg.VY = 0, 0
	msg.Time = 2000000

	rec := Translate(msg, Options{FlightOperationID: "USSP-HH-unknwon"})
	payload, err := json.Marshal(&rec)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"uavId": "D2X-00000000",
		"flightOperationId": "USSP-HH-unknwon",
		"timeStamp": 2.0,
		"coordinate": {"type": "Point", "coordinates": [9.0, 10.5]},
		"heading": 0,
		"altitudeInMeters": 1.5,
		"speedInMetersPerSecond": 0,
		"isFlying": true
	}`, string(payload))
}

func TestFlyState(t *testing.T) {
	assert.Equal(t, "flying", (&TrackingRecord{IsFlying: true}).FlyState())
	assert.Equal(t, "grounded", (&TrackingRecord{}).FlyState())
}
