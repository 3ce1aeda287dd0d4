// Package gws implements the transport contract over WebSocket using
// gorilla/websocket. It is an alternative to the default ws backend and is
// selected by injecting its Dialer through config.Dependencies.
package gws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sockchan/pkg/transport"
)

const controlTimeout = 5 * time.Second

// Conn adapts a gorilla *websocket.Conn to transport.Conn.
//
// Gorilla permits only one concurrent writer, so Send is serialized with a
// mutex; control frames (ping, close) may be written concurrently per the
// library's contract.
type Conn struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu          sync.Mutex
	closed      bool
	closeCode   transport.StatusCode
	closeReason string
	pingStop    chan struct{}
}

// NewConn wraps an established gorilla WebSocket connection.
func NewConn(c *websocket.Conn) *Conn {
	return &Conn{conn: c}
}

// Receive reads the next message. Context cancellation unblocks the read by
// expiring the read deadline. A close frame from the peer records the close
// code and reason and returns io.EOF.
func (c *Conn) Receive(ctx context.Context) (transport.Message, error) {
	_ = c.conn.SetReadDeadline(time.Time{}) // clear a deadline left by a prior context

	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.SetReadDeadline(time.Now()) // unblock ReadMessage
		case <-watcherDone:
		}
	}()

	typ, data, err := c.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			c.recordClose(transport.StatusCode(ce.Code), ce.Text)
			return transport.Message{}, io.EOF
		}
		if ctx.Err() != nil {
			return transport.Message{}, ctx.Err()
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
	case websocket.TextMessage:
		msg.Type = transport.MessageText
	case websocket.BinaryMessage:
		msg.Type = transport.MessageBinary
	default:
		return transport.Message{}, fmt.Errorf("websocket read: unexpected message type %d", typ)
	}
	return msg, nil
}

// Send forwards one message, unmodified.
func (c *Conn) Send(ctx context.Context, msg transport.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.conn.WriteMessage(wireType(msg.Type), msg.Data)
}

// Close sends a close frame with the given status code and reason, then
// closes the underlying connection.
func (c *Conn) Close(code transport.StatusCode, reason string) error {
	c.stopPing()
	c.recordClose(code, reason)

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	frame := websocket.FormatCloseMessage(int(code), reason)
	err := c.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(controlTimeout))
	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	return err
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
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlTimeout))
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

func wireType(t transport.MessageType) int {
	if t == transport.MessageText {
		return websocket.TextMessage
	}
	return websocket.BinaryMessage
}
