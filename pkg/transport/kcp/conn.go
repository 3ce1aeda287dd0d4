// Package kcp implements the transport contract over reliable UDP using the
// KCP protocol. KCP delivers an ordered byte stream, so messages are framed
// with a 1-byte type and a 4-byte big-endian length:
//
//	+------+----------+---------...---+
//	| type | length   | payload       |
//	+------+----------+---------...---+
//
// Frame types: text (0x1), binary (0x2), close (0x8, payload is a 2-byte
// status code followed by the reason), ping (0x9, ignored by the receiver).
// There is no sub-protocol negotiation; Subprotocol always returns "".
package kcp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	kcp "github.com/xtaci/kcp-go/v5"

	"sockchan/pkg/transport"
)

const (
	frameText   byte = 0x1
	frameBinary byte = 0x2
	frameClose  byte = 0x8
	framePing   byte = 0x9
)

const headerSize = 5

// maxFrameSize caps inbound payloads so a corrupt length field cannot force
// a huge allocation.
const maxFrameSize = 16 << 20

// Conn adapts a KCP session to transport.Conn.
type Conn struct {
	sess *kcp.UDPSession

	writeMu sync.Mutex

	mu          sync.Mutex
	closed      bool
	closeCode   transport.StatusCode
	closeReason string
	pingStop    chan struct{}
}

// newConn wraps and tunes a KCP session.
func newConn(sess *kcp.UDPSession) *Conn {
	// SetNoDelay(nodelay, interval, resend, nc): fast retransmission with
	// congestion control disabled, 10ms internal update interval.
	sess.SetNoDelay(1, 10, 2, 1)
	sess.SetStreamMode(true)
	sess.SetWindowSize(1024, 1024)

	return &Conn{sess: sess}
}

// Receive reads the next message frame, skipping keep-alive pings. A close
// frame records the peer's status code and reason and returns io.EOF.
func (c *Conn) Receive(ctx context.Context) (transport.Message, error) {
	_ = c.sess.SetReadDeadline(time.Time{}) // clear a deadline left by a prior context

	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.sess.SetReadDeadline(time.Now()) // unblock the read
		case <-watcherDone:
		}
	}()

	for {
		typ, payload, err := c.readFrame()
		if err != nil {
			if ctx.Err() != nil {
				return transport.Message{}, ctx.Err()
			}

			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return transport.Message{}, io.EOF
			}
			return transport.Message{}, fmt.Errorf("kcp read: %w", err)
		}

		switch typ {
		case frameText:
			return transport.Message{Type: transport.MessageText, Data: payload}, nil

		case frameBinary:
			return transport.Message{Type: transport.MessageBinary, Data: payload}, nil

		case frameClose:
			code := transport.CodeAbnormalClosure
			reason := ""
			if len(payload) >= 2 {
				code = transport.StatusCode(binary.BigEndian.Uint16(payload[:2]))
				reason = string(payload[2:])
			}
			c.recordClose(code, reason)
			_ = c.sess.Close()
			return transport.Message{}, io.EOF

		case framePing:
			continue

		default:
			return transport.Message{}, fmt.Errorf("kcp read: unexpected frame type %#x", typ)
		}
	}
}

func (c *Conn) readFrame() (byte, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(c.sess, header[:]); err != nil {
		return 0, nil, err
	}

	size := binary.BigEndian.Uint32(header[1:])
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.sess, payload); err != nil {
		return 0, nil, err
	}
	return header[0], payload, nil
}

// Send forwards one message, unmodified, as a single frame.
func (c *Conn) Send(ctx context.Context, msg transport.Message) error {
	typ := frameBinary
	if msg.Type == transport.MessageText {
		typ = frameText
	}
	return c.writeFrame(ctx, typ, msg.Data)
}

// Close sends a close frame carrying the status code and reason, then
// closes the session.
func (c *Conn) Close(code transport.StatusCode, reason string) error {
	c.stopPing()
	c.recordClose(code, reason)

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	copy(payload[2:], reason)

	err := c.writeFrame(context.Background(), frameClose, payload)
	if closeErr := c.sess.Close(); err == nil {
		err = closeErr
	}
	return err
}

// writeFrame writes one frame as a single session write so concurrent
// writers cannot interleave header and payload.
func (c *Conn) writeFrame(ctx context.Context, typ byte, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	buf[0] = typ
	binary.BigEndian.PutUint32(buf[1:], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.sess.SetWriteDeadline(deadline)
		defer c.sess.SetWriteDeadline(time.Time{})
	}

	if _, err := c.sess.Write(buf); err != nil {
		return fmt.Errorf("kcp write: %w", err)
	}
	return nil
}

// Subprotocol returns "": KCP has no sub-protocol negotiation.
func (c *Conn) Subprotocol() string {
	return ""
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

// SetPingInterval starts a keep-alive loop writing ping frames, replacing
// any previous one. A non-positive duration stops pinging.
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
			err := c.writeFrame(ctx, framePing, nil)
			cancel()
			if err != nil {
				return // session is dying, the read side reports it
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
