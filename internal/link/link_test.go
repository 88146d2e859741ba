package link

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavlink-bridge/internal/mavlink"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func heartbeatFrame(seq uint8) []byte {
	return mavlink.MarshalFrame(seq, 1, 1, mavlink.MsgIDHeartbeat, (&mavlink.Heartbeat{}).Marshal())
}

func positionFrame(seq uint8, msg *mavlink.UTMGlobalPosition) []byte {
	return mavlink.MarshalFrame(seq, 1, 190, mavlink.MsgIDUTMGlobalPosition, msg.Marshal())
}

func TestConnectRejectsUnsupportedTransport(t *testing.T) {
	_, err := Connect("serial:/dev/ttyUSB0", 255, 0, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")

	_, err = Connect("garbage", 255, 0, testLogger())
	assert.Error(t, err)
}

func TestRecvFiltersOtherMessageTypes(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	l := New(local, 255, 0, false, testLogger())

	go func() {
		remote.Write(heartbeatFrame(0))
		remote.Write([]byte{0xDE, 0xAD}) // line noise between frames
		remote.Write(positionFrame(1, &mavlink.UTMGlobalPosition{Time: 99}))
	}()

	f, err := l.Recv(mavlink.MsgIDUTMGlobalPosition, time.Second)
	require.NoError(t, err)
	assert.Equal(t, mavlink.MsgIDUTMGlobalPosition, f.MsgID)
	assert.Equal(t, uint64(99), mavlink.UnmarshalUTMGlobalPosition(f).Time)
}

func TestRecvTimeout(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()
	l := New(local, 255, 0, false, testLogger())

	_, err := l.Recv(mavlink.MsgIDUTMGlobalPosition, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRecvSurfacesTransportError(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	l := New(local, 255, 0, false, testLogger())

	remote.Close()
	_, err := l.Recv(mavlink.MsgIDUTMGlobalPosition, time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestSendHeartbeatFrames(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()
	l := New(local, 255, 0, true, testLogger())

	got := make(chan *mavlink.Frame, 1)
	go func() {
		f, err := mavlink.NewParser(remote).Next()
		if err == nil {
			got <- f
		}
	}()

	require.NoError(t, l.SendHeartbeat())

	select {
	case f := <-got:
		assert.Equal(t, mavlink.MsgIDHeartbeat, f.MsgID)
		assert.Equal(t, uint8(255), f.SysID)
		assert.Equal(t, uint8(0), f.CompID)
	case <-time.After(time.Second):
		t.Fatal("no heartbeat arrived")
	}
}

func TestHandshakeSucceedsOnReply(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()
	l := New(local, 255, 0, true, testLogger())

	go func() {
		// swallow our heartbeat, then answer like an autopilot would
		p := mavlink.NewParser(remote)
		if _, err := p.Next(); err != nil {
			return
		}
		remote.Write(heartbeatFrame(0))
	}()

	h := Handshake{Attempts: 3, Timeout: 200 * time.Millisecond}
	assert.NoError(t, h.Establish(l))
}

func TestHandshakeExhaustsRetries(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()
	l := New(local, 255, 0, true, testLogger())

	// drain heartbeats without ever replying
	received := make(chan struct{}, 16)
	go func() {
		p := mavlink.NewParser(remote)
		for {
			if _, err := p.Next(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	h := Handshake{Attempts: 3, Timeout: 20 * time.Millisecond}
	start := time.Now()
	err := h.Establish(l)

	require.ErrorIs(t, err, ErrHandshakeExhausted)
	assert.GreaterOrEqual(t, time.Since(start), 3*20*time.Millisecond,
		"attempts must be separated by the configured timeout")
	assert.Len(t, received, 3, "exactly one heartbeat per attempt")
}

func TestHandshakeDefaults(t *testing.T) {
	assert.Equal(t, 10, DefaultHandshakeAttempts)
	assert.Equal(t, time.Second, DefaultHandshakeTimeout)
}
