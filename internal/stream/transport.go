package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lxzan/gws"

	"kalshigo/pkg/core"
)

// Conn is one physical socket. Receive's channel is closed when the socket
// dies, which is the manager's disconnect signal.
type Conn interface {
	// Send writes one text frame.
	Send(data []byte) error
	// Ping writes a heartbeat frame.
	Ping() error
	// Receive returns the inbound frame channel. It is closed on disconnect.
	Receive() <-chan []byte
	// Close tears down the socket.
	Close() error
}

// Dialer performs the websocket handshake. The production implementation
// wraps gws; tests substitute a fake so the manager's state machine can be
// exercised without real sockets.
type Dialer interface {
	Dial(ctx context.Context, url string, headers map[string]string) (Conn, error)
}

// GWSDialer dials real websocket connections.
type GWSDialer struct {
	// HandshakeTimeout bounds the dial. Zero means 10s.
	HandshakeTimeout time.Duration
	// PingInterval and PongWait size the read deadline; a connection that
	// misses heartbeats past the deadline fails its read loop and closes.
	PingInterval time.Duration
	PongWait     time.Duration
	// BufferSize is the inbound frame channel capacity.
	BufferSize int
}

// Dial connects to url with the given handshake headers and returns once the
// socket is open.
func (d *GWSDialer) Dial(ctx context.Context, url string, headers map[string]string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	bufSize := d.BufferSize
	if bufSize == 0 {
		bufSize = 256
	}

	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}

	conn := &gwsConn{
		deadline: d.PingInterval + d.PongWait,
		msgCh:    make(chan []byte, bufSize),
		openCh:   make(chan struct{}),
	}

	socket, _, err := gws.NewClient(conn, &gws.ClientOption{
		Addr:          url,
		RequestHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	conn.socket = socket

	go socket.ReadLoop()

	select {
	case <-conn.openCh:
		return conn, nil
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		return nil, ctx.Err()
	case <-time.After(timeout):
		_ = socket.NetConn().Close()
		return nil, fmt.Errorf("websocket handshake timeout")
	}
}

// gwsConn adapts a gws socket to the Conn interface. It doubles as the gws
// event handler for its own socket.
type gwsConn struct {
	socket   *gws.Conn
	deadline time.Duration

	msgCh  chan []byte
	openCh chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	openOnce  sync.Once
}

func (c *gwsConn) Send(data []byte) error {
	if c.closed.Load() {
		return core.ErrNotConnected
	}
	return c.socket.WriteMessage(gws.OpcodeText, data)
}

func (c *gwsConn) Ping() error {
	if c.closed.Load() {
		return core.ErrNotConnected
	}
	return c.socket.WritePing(nil)
}

func (c *gwsConn) Receive() <-chan []byte {
	return c.msgCh
}

func (c *gwsConn) Close() error {
	return c.socket.NetConn().Close()
}

func (c *gwsConn) OnOpen(socket *gws.Conn) {
	c.openOnce.Do(func() { close(c.openCh) })
	if c.deadline > 0 {
		_ = socket.SetDeadline(time.Now().Add(c.deadline))
	}
}

func (c *gwsConn) OnClose(socket *gws.Conn, err error) {
	c.closed.Store(true)
	c.closeOnce.Do(func() { close(c.msgCh) })
}

func (c *gwsConn) OnPing(socket *gws.Conn, payload []byte) {
	if c.deadline > 0 {
		_ = socket.SetDeadline(time.Now().Add(c.deadline))
	}
	_ = socket.WritePong(nil)
}

func (c *gwsConn) OnPong(socket *gws.Conn, payload []byte) {
	if c.deadline > 0 {
		_ = socket.SetDeadline(time.Now().Add(c.deadline))
	}
}

func (c *gwsConn) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	data := message.Bytes()
	if len(data) == 0 {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case c.msgCh <- buf:
	default:
		// Inbound buffer full. Dropping here is preferable to stalling the
		// read loop and missing heartbeats.
	}
}
