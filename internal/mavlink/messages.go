package mavlink

import "encoding/binary"

// Message IDs from the common dialect.
const (
	MsgIDHeartbeat         uint32 = 0
	MsgIDUTMGlobalPosition uint32 = 340
)

// UTM_FLIGHT_STATE values.
const (
	FlightStateUnknown   uint8 = 1
	FlightStateGround    uint8 = 2
	FlightStateAirborne  uint8 = 3
	FlightStateEmergency uint8 = 16
	FlightStateNoCtrl    uint8 = 32
)

const (
	heartbeatLen         = 9
	utmGlobalPositionLen = 70
)

// Heartbeat carries presence only; all mode fields are zeroed on send,
// mirroring what a ground station announces.
type Heartbeat struct {
	CustomMode     uint32
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	SystemStatus   uint8
	MavlinkVersion uint8
}

func (m *Heartbeat) Marshal() []byte {
	buf := make([]byte, heartbeatLen)
	binary.LittleEndian.PutUint32(buf[0:4], m.CustomMode)
	buf[4] = m.Type
	buf[5] = m.Autopilot
	buf[6] = m.BaseMode
	buf[7] = m.SystemStatus
	buf[8] = m.MavlinkVersion
	return buf
}

// UTMGlobalPosition is the decoded position-telemetry record. SrcSystem
// and SrcComponent come from the frame header, everything else from the
// payload. Field order follows the wire layout (largest types first).
type UTMGlobalPosition struct {
	SrcSystem    uint8
	SrcComponent uint8

	Time        uint64 // microseconds since epoch
	Lat         int32  // degE7
	Lon         int32  // degE7
	Alt         int32  // mm above WGS84
	RelativeAlt int32  // mm
	NextLat     int32
	NextLon     int32
	NextAlt     int32
	VX          int16 // cm/s
	VY          int16 // cm/s
	VZ          int16 // cm/s
	HAcc        uint16
	VAcc        uint16
	VelAcc      uint16
	UpdateRate  uint16
	UASID       [18]byte
	FlightState uint8
	Flags       uint8
}

func (m *UTMGlobalPosition) Marshal() []byte {
	buf := make([]byte, utmGlobalPositionLen)
	binary.LittleEndian.PutUint64(buf[0:8], m.Time)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(m.Lat))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(m.Lon))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(m.Alt))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(m.RelativeAlt))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(m.NextLat))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(m.NextLon))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(m.NextAlt))
	binary.LittleEndian.PutUint16(buf[36:38], uint16(m.VX))
	binary.LittleEndian.PutUint16(buf[38:40], uint16(m.VY))
	binary.LittleEndian.PutUint16(buf[40:42], uint16(m.VZ))
	binary.LittleEndian.PutUint16(buf[42:44], m.HAcc)
	binary.LittleEndian.PutUint16(buf[44:46], m.VAcc)
	binary.LittleEndian.PutUint16(buf[46:48], m.VelAcc)
	binary.LittleEndian.PutUint16(buf[48:50], m.UpdateRate)
	copy(buf[50:68], m.UASID[:])
	buf[68] = m.FlightState
	buf[69] = m.Flags
	return buf
}

// UnmarshalUTMGlobalPosition decodes a CRC-verified frame payload. v2
// truncates trailing zero bytes, so short payloads are zero-extended
// first, which also makes the decode total.
func UnmarshalUTMGlobalPosition(f *Frame) *UTMGlobalPosition {
	payload := f.Payload
	if len(payload) < utmGlobalPositionLen {
		padded := make([]byte, utmGlobalPositionLen)
		copy(padded, payload)
		payload = padded
	}

	m := &UTMGlobalPosition{
		SrcSystem:    f.SysID,
		SrcComponent: f.CompID,
		Time:         binary.LittleEndian.Uint64(payload[0:8]),
		Lat:          int32(binary.LittleEndian.Uint32(payload[8:12])),
		Lon:          int32(binary.LittleEndian.Uint32(payload[12:16])),
		Alt:          int32(binary.LittleEndian.Uint32(payload[16:20])),
		RelativeAlt:  int32(binary.LittleEndian.Uint32(payload[20:24])),
		NextLat:      int32(binary.LittleEndian.Uint32(payload[24:28])),
		NextLon:      int32(binary.LittleEndian.Uint32(payload[28:32])),
		NextAlt:      int32(binary.LittleEndian.Uint32(payload[32:36])),
		VX:           int16(binary.LittleEndian.Uint16(payload[36:38])),
		VY:           int16(binary.LittleEndian.Uint16(payload[38:40])),
		VZ:           int16(binary.LittleEndian.Uint16(payload[40:42])),
		HAcc:         binary.LittleEndian.Uint16(payload[42:44]),
		VAcc:         binary.LittleEndian.Uint16(payload[44:46]),
		VelAcc:       binary.LittleEndian.Uint16(payload[46:48]),
		UpdateRate:   binary.LittleEndian.Uint16(payload[48:50]),
		FlightState:  payload[68],
		Flags:        payload[69],
	}
	copy(m.UASID[:], payload[50:68])
	return m
}
