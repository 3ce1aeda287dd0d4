// Package ws implements the transport contract over WebSocket using
// coder/websocket. It is the default backend for ws:// and wss:// targets.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"

	"sockchan/pkg/transport"
)

// Conn adapts a *websocket.Conn to transport.Conn.
type Conn struct {
	conn *websocket.Conn

	mu          sync.Mutex
	closed      bool
	closeCode   transport.StatusCode
	closeReason string
	pingStop    chan struct{}
}

// NewConn wraps an established WebSocket connection. Used by the dialer and
// by server-side accept paths.
func NewConn(c *websocket.Conn) *Conn {
	return &Conn{conn: c}
}

// Receive reads the next message. A close frame from the peer records the
// close code and reason and returns io.EOF; read failures after a local
// Close also surface as io.EOF since shutdown was requested.
func (c *Conn) Receive(ctx context.Context) (transport.Message, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		var ce websocket.CloseError
		if errors.As(err, &ce) {
			c.recordClose(transport.StatusCode(ce.Code), ce.Reason)
			return transport.Message{}, io.EOF
		}

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return transport.Message{}, io.EOF
		}
		return transport.Message{}, fmt.Errorf("websocket read: %w", err)
	}

	msg := transport.Message{Data: data}
	switch typ {
	case websocket.MessageText:
		msg.Type = transport.MessageText
	case websocket.MessageBinary:
		msg.Type = transport.MessageBinary
	default:
		return transport.Message{}, fmt.Errorf("websocket read: unexpected message type %v", typ)
	}
	return msg, nil
}

// Send forwards one message, unmodified.
func (c *Conn) Send(ctx context.Context, msg transport.Message) error {
	return c.conn.Write(ctx, wireType(msg.Type), msg.Data)
}

// Close sends a close frame with the given status code and reason and tears
// the connection down. Repeated calls return the library's own error.
func (c *Conn) Close(code transport.StatusCode, reason string) error {
	c.stopPing()
	c.recordClose(code, reason)

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return c.conn.Close(websocket.StatusCode(code), reason)
}

// Subprotocol returns the sub-protocol negotiated during the handshake.
func (c *Conn) Subprotocol() string {
	return c.conn.Subprotocol()
}

// CloseCode returns the close status, or transport.CodeNone before closure.
func (c *Conn) CloseCode() transport.StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

// CloseReason returns the close reason, or "" before closure.
func (c *Conn) CloseReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeReason
}

// SetPingInterval starts a keep-alive ping loop, replacing any previous one.
// A non-positive duration stops pinging.
func (c *Conn) SetPingInterval(d time.Duration) {
	c.stopPing()
	if d <= 0 {
		return
	}

	stop := make(chan struct{})
	c.mu.Lock()
	c.pingStop = stop
	c.mu.Unlock()

	go c.pingLoop(d, stop)
}

func (c *Conn) pingLoop(d time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), d)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return // connection is dying, the read side reports it
			}
		}
	}
}

func (c *Conn) stopPing() {
	c.mu.Lock()
	stop := c.pingStop
	c.pingStop = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// recordClose keeps the first close code and reason observed.
func (c *Conn) recordClose(code transport.StatusCode, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeCode == transport.CodeNone {
		c.closeCode = code
		c.closeReason = reason
	}
}

func wireType(t transport.MessageType) websocket.MessageType {
	if t == transport.MessageText {
		return websocket.MessageText
	}
	return websocket.MessageBinary
}
