package link

import (
	"errors"
	"fmt"
	"time"

	"mavlink-bridge/internal/mavlink"
	"mavlink-bridge/internal/observability"
)

// Handshake defaults matching the deployed bridge behavior.
const (
	DefaultHandshakeAttempts = 10
	DefaultHandshakeTimeout  = time.Second
)

// ErrHandshakeExhausted means the remote never answered a heartbeat
// within the allowed attempts. Fatal for the caller.
var ErrHandshakeExhausted = errors.New("link: handshake retries exhausted")

// Handshake actively creates reachability on a connectionless transport:
// an outbound UDP socket receives nothing until the remote has seen a
// packet from us, so we send heartbeats until one is answered.
type Handshake struct {
	Attempts int           // 0 means DefaultHandshakeAttempts
	Timeout  time.Duration // per-attempt reply wait, 0 means DefaultHandshakeTimeout
}

// Establish sends a heartbeat and waits for any heartbeat reply, retrying
// up to the configured attempt count. Succeeds on the first reply.
func (h Handshake) Establish(l *Link) error {
	attempts := h.Attempts
	if attempts <= 0 {
		attempts = DefaultHandshakeAttempts
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	l.logger.Info("udp out: sending heartbeat to initialize a connection")
	for i := 1; i <= attempts; i++ {
		observability.HandshakeAttempts.Inc()
		if err := l.SendHeartbeat(); err != nil {
			return err
		}

		_, err := l.Recv(mavlink.MsgIDHeartbeat, timeout)
		if err == nil {
			l.logger.Info("heartbeat reply received, link is up", "attempts", i)
			return nil
		}
		if !errors.Is(err, ErrTimeout) {
			return fmt.Errorf("link: handshake receive: %w", err)
		}
		l.logger.Debug("udp out: retrying heartbeat", "attempt", i)
	}
	return ErrHandshakeExhausted
}
