package mavlink

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Frame magic bytes for the two wire versions. Autopilots reply with
// either, so the parser accepts both; we only ever send v2 because
// UTM_GLOBAL_POSITION does not fit a one-byte message ID.
const (
	magicV1 = 0xFE
	magicV2 = 0xFD
)

// v2 incompat flag: 13 trailing signature bytes present.
const incompatFlagSigned = 0x01

// ErrBadCRC marks a frame whose checksum did not verify. The caller is
// expected to skip it and keep reading.
var ErrBadCRC = errors.New("mavlink: checksum mismatch")

// crcExtra is the per-message seed appended to the checksum, from the
// common dialect. Messages missing here cannot be CRC-verified, so the
// parser drops them.
var crcExtra = map[uint32]byte{
	MsgIDHeartbeat:         50,
	MsgIDUTMGlobalPosition: 99,
}

// Frame is one decoded transport frame, payload still raw.
type Frame struct {
	Seq     uint8
	SysID   uint8
	CompID  uint8
	MsgID   uint32
	Payload []byte
}

// x25 folds one byte into the CRC-16/X.25 accumulator.
func x25(crc uint16, b byte) uint16 {
	tmp := b ^ byte(crc)
	tmp ^= tmp << 4
	return (crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
}

func x25Sum(data []byte, extra byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = x25(crc, b)
	}
	return x25(crc, extra)
}

// MarshalFrame encodes a v2 frame. Trailing zero bytes of the payload are
// truncated per the v2 rules, keeping at least one byte.
func MarshalFrame(seq, sysID, compID uint8, msgID uint32, payload []byte) []byte {
	n := len(payload)
	for n > 1 && payload[n-1] == 0 {
		n--
	}
	payload = payload[:n]

	buf := make([]byte, 0, 12+n)
	buf = append(buf, magicV2, byte(n), 0, 0, seq, sysID, compID,
		byte(msgID), byte(msgID>>8), byte(msgID>>16))
	buf = append(buf, payload...)

	crc := x25Sum(buf[1:], crcExtra[msgID])
	return binary.LittleEndian.AppendUint16(buf, crc)
}

// Parser reads frames off a byte stream, resynchronizing on the next
// magic byte after garbage. One parser per link; not safe for concurrent
// use (the bridge is single-consumer anyway).
type Parser struct {
	r *bufio.Reader
}

func NewParser(r io.Reader) *Parser {
	return &Parser{r: bufio.NewReaderSize(r, 4096)}
}

// Next returns the next frame on the stream. A frame that fails its
// checksum is returned together with ErrBadCRC; transport errors
// (including read deadline expiry) are returned as-is.
func (p *Parser) Next() (*Frame, error) {
	for {
		magic, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch magic {
		case magicV1:
			return p.readV1()
		case magicV2:
			return p.readV2()
		}
		// garbage byte between frames, keep scanning
	}
}

func (p *Parser) readV1() (*Frame, error) {
	head := make([]byte, 5)
	if _, err := io.ReadFull(p.r, head); err != nil {
		return nil, err
	}
	payloadLen := int(head[0])
	body := make([]byte, payloadLen+2)
	if _, err := io.ReadFull(p.r, body); err != nil {
		return nil, err
	}

	f := &Frame{
		Seq:     head[1],
		SysID:   head[2],
		CompID:  head[3],
		MsgID:   uint32(head[4]),
		Payload: body[:payloadLen],
	}
	extra, known := crcExtra[f.MsgID]
	if !known {
		return f, ErrBadCRC
	}
	sum := uint16(0xFFFF)
	for _, b := range head {
		sum = x25(sum, b)
	}
	for _, b := range f.Payload {
		sum = x25(sum, b)
	}
	sum = x25(sum, extra)
	if sum != binary.LittleEndian.Uint16(body[payloadLen:]) {
		return f, ErrBadCRC
	}
	return f, nil
}

func (p *Parser) readV2() (*Frame, error) {
	head := make([]byte, 9)
	if _, err := io.ReadFull(p.r, head); err != nil {
		return nil, err
	}
	payloadLen := int(head[0])
	incompat := head[1]

	tail := payloadLen + 2
	if incompat&incompatFlagSigned != 0 {
		tail += 13
	}
	body := make([]byte, tail)
	if _, err := io.ReadFull(p.r, body); err != nil {
		return nil, err
	}

	f := &Frame{
		Seq:     head[3],
		SysID:   head[4],
		CompID:  head[5],
		MsgID:   uint32(head[6]) | uint32(head[7])<<8 | uint32(head[8])<<16,
		Payload: body[:payloadLen],
	}
	extra, known := crcExtra[f.MsgID]
	if !known {
		return f, ErrBadCRC
	}
	sum := uint16(0xFFFF)
	for _, b := range head {
		sum = x25(sum, b)
	}
	for _, b := range f.Payload {
		sum = x25(sum, b)
	}
	sum = x25(sum, extra)
	if sum != binary.LittleEndian.Uint16(body[payloadLen:payloadLen+2]) {
		return f, ErrBadCRC
	}
	return f, nil
}
