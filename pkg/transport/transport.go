// Package transport defines the message-framed connection contract the
// channel layer builds on. Each backend (ws, gws, kcp) provides its own Conn
// and Dialer implementation instead of sharing code:
//
// Dialers:
//   - Establish outbound connections
//   - Accept: context (cancellation and deadlines flow through it)
//   - Return: Conn or error
//   - Handle all connection setup and cleanup internally
//
// Conns:
//   - Receive/Send exchange whole messages, never byte fragments
//   - Receive is single-reader: at most one call may be in flight
//   - Close forwards a status code and reason to the peer
//   - Clean remote shutdown surfaces from Receive as io.EOF after the
//     close code and reason have been recorded on the Conn
//
// Backend-specific notes:
//   - ws: coder/websocket, the default backend for ws:// and wss://
//   - gws: gorilla/websocket, selectable through config.Dependencies
//   - kcp: reliable UDP with a type+length frame header for message framing
package transport

import (
	"context"
	"time"
)

// MessageType identifies the payload kind of a Message.
type MessageType int

const (
	// MessageText is a UTF-8 text message.
	MessageText MessageType = iota + 1
	// MessageBinary is an opaque binary message.
	MessageBinary
)

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is one framed unit exchanged over a Conn.
type Message struct {
	Type MessageType
	Data []byte
}

// StatusCode is a close status exchanged during connection shutdown.
// The values mirror RFC 6455 section 7.4.1.
type StatusCode int

// Close status codes.
const (
	CodeNone            StatusCode = 0 // no close code recorded yet
	CodeNormalClosure   StatusCode = 1000
	CodeGoingAway       StatusCode = 1001
	CodeProtocolError   StatusCode = 1002
	CodeAbnormalClosure StatusCode = 1006
	CodeInternalError   StatusCode = 1011
)

// Conn is a connected, message-framed duplex socket.
//
// Receive must not be called concurrently with itself. Send and Close are
// safe to call from any goroutine. CloseCode and CloseReason return their
// zero values until a close frame has been sent or received.
type Conn interface {
	// Receive blocks until the next inbound message, an error, or
	// end-of-stream. The context cancels the wait.
	Receive(ctx context.Context) (Message, error)

	// Send forwards one message to the peer, unmodified.
	Send(ctx context.Context, msg Message) error

	// Close initiates connection shutdown with the given status code and
	// human-readable reason. Behavior of repeated calls is backend-defined.
	Close(code StatusCode, reason string) error

	// Subprotocol returns the negotiated sub-protocol, or "" if none.
	Subprotocol() string

	// CloseCode returns the close status, or CodeNone before closure.
	CloseCode() StatusCode

	// CloseReason returns the close reason, or "" before closure.
	CloseReason() string

	// SetPingInterval configures keep-alive pings. A non-positive duration
	// disables them.
	SetPingInterval(d time.Duration)
}

// Dialer establishes outbound connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Handler is a function that processes an accepted connection.
// The connection will be closed after the handler returns.
type Handler func(Conn) error
