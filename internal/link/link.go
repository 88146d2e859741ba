package link

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"mavlink-bridge/internal/mavlink"
	"mavlink-bridge/internal/observability"
)

// ErrTimeout is returned by Recv when the optional receive deadline
// expires before a matching message arrives.
var ErrTimeout = errors.New("link: receive timed out")

// Link is the telemetry connection to the downlink device. One Link is
// owned by one bridge loop; none of the methods are safe for concurrent
// use.
type Link struct {
	conn           net.Conn
	parser         *mavlink.Parser
	logger         *slog.Logger
	sysID, compID  uint8
	seq            uint8
	connectionless bool
}

// Connect dials the device string. Supported schemes are tcp:host:port,
// udpin:host:port (listen, peer learned from the first datagram) and
// udpout:host:port (dial, requires a heartbeat handshake before use).
func Connect(device string, sysID, compID uint8, logger *slog.Logger) (*Link, error) {
	scheme, addr, ok := strings.Cut(device, ":")
	if !ok {
		return nil, fmt.Errorf("link: malformed device %q", device)
	}

	switch scheme {
	case "tcp":
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("link: dial %s: %w", device, err)
		}
		return New(c, sysID, compID, false, logger), nil
	case "udpout":
		c, err := net.Dial("udp", addr)
		if err != nil {
			return nil, fmt.Errorf("link: dial %s: %w", device, err)
		}
		return New(c, sysID, compID, true, logger), nil
	case "udpin":
		laddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return nil, fmt.Errorf("link: resolve %s: %w", device, err)
		}
		pc, err := net.ListenUDP("udp", laddr)
		if err != nil {
			return nil, fmt.Errorf("link: listen %s: %w", device, err)
		}
		return New(&udpServerConn{UDPConn: pc}, sysID, compID, false, logger), nil
	default:
		return nil, fmt.Errorf("link: unsupported transport %q in device %q", scheme, device)
	}
}

// New wraps an established connection. Exposed so tests can drive a Link
// over net.Pipe.
func New(conn net.Conn, sysID, compID uint8, connectionless bool, logger *slog.Logger) *Link {
	return &Link{
		conn:           conn,
		parser:         mavlink.NewParser(conn),
		logger:         logger.With("component", "link"),
		sysID:          sysID,
		compID:         compID,
		connectionless: connectionless,
	}
}

// Connectionless reports whether the transport needs an active handshake
// before anything will ever be received.
func (l *Link) Connectionless() bool { return l.connectionless }

func (l *Link) Close() error { return l.conn.Close() }

// SendHeartbeat announces our presence with a zeroed heartbeat, the same
// frame a ground station idles with.
func (l *Link) SendHeartbeat() error {
	hb := mavlink.Heartbeat{}
	frame := mavlink.MarshalFrame(l.seq, l.sysID, l.compID, mavlink.MsgIDHeartbeat, hb.Marshal())
	l.seq++
	if _, err := l.conn.Write(frame); err != nil {
		return fmt.Errorf("link: heartbeat send: %w", err)
	}
	return nil
}

// Recv blocks until a frame with the wanted message ID arrives. Frames of
// any other type, and frames that fail their checksum, are dropped at
// this layer and never surface. timeout 0 means no deadline.
func (l *Link) Recv(msgID uint32, timeout time.Duration) (*mavlink.Frame, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := l.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	for {
		f, err := l.parser.Next()
		if err != nil {
			if errors.Is(err, mavlink.ErrBadCRC) {
				observability.FramesDropped.Inc()
				l.logger.Debug("dropping frame with bad checksum", "msgid", f.MsgID)
				continue
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return nil, ErrTimeout
			}
			return nil, err
		}
		if f.MsgID != msgID {
			observability.FramesSkipped.Inc()
			l.logger.Debug("ignoring message", "msgid", f.MsgID,
				"src_system", f.SysID, "src_component", f.CompID)
			continue
		}
		return f, nil
	}
}

// udpServerConn adapts a listening UDP socket to net.Conn by latching
// the peer address from the first inbound datagram. Writes before any
// peer is known are silently dropped.
type udpServerConn struct {
	*net.UDPConn

	mu   sync.Mutex
	peer *net.UDPAddr
}

func (c *udpServerConn) Read(p []byte) (int, error) {
	n, addr, err := c.UDPConn.ReadFromUDP(p)
	if addr != nil {
		c.mu.Lock()
		c.peer = addr
		c.mu.Unlock()
	}
	return n, err
}

func (c *udpServerConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return len(p), nil
	}
	return c.UDPConn.WriteToUDP(p, peer)
}

func (c *udpServerConn) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == nil {
		return nil
	}
	return c.peer
}
