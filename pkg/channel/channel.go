// Package channel presents a remote endpoint as a duplex sequence of
// discrete messages: a readable inbound sequence, a writable outbound sink,
// and a readiness signal, uniform across eagerly wrapped and asynchronously
// connected transports.
//
// A Channel obtained from Connect exists before its transport does. Sends
// issued in the interim are queued and flushed in order once the connect
// attempt succeeds; if it fails, the failure arrives as a single translated
// error on the inbound sequence and the channel never becomes ready.
package channel

import (
	"context"
	"sync"

	"sockchan/pkg/transport"
)

// Channel is one logical duplex connection.
type Channel struct {
	ready  *readiness
	stream *deferredStream
	sink   *deferredSink

	mu sync.Mutex
	tr transport.Conn // set at most once, by the connect continuation
}

func newChannel() *Channel {
	return &Channel{
		ready:  newReadiness(),
		stream: newDeferredStream(),
		sink:   &deferredSink{},
	}
}

// Wrap returns an immediately-ready channel around an already-connected
// transport.
func Wrap(tr transport.Conn) *Channel {
	c := newChannel()
	_ = c.bind(context.Background(), tr) // nothing queued yet, flush cannot fail
	return c
}

// bind installs the transport handle, flushes the sink, supplies the stream
// source and fires readiness, in that order. Returns any sink flush error.
func (c *Channel) bind(ctx context.Context, tr transport.Conn) error {
	c.mu.Lock()
	if c.tr != nil {
		c.mu.Unlock()
		panic("channel: transport bound twice")
	}
	c.tr = tr
	c.mu.Unlock()

	flushErr := c.sink.bind(ctx, tr)
	c.stream.supply(tr)
	c.ready.fire()
	return flushErr
}

// fail terminates an unbound channel: the translated error becomes the sole
// event on the inbound sequence, queued sends are discarded, and readiness
// never fires.
func (c *Channel) fail(err error) {
	terr := translate(err)
	c.sink.fail(terr)
	c.stream.fail(terr)
}

// Ready returns a channel closed once the transport is connected and the
// channel is usable. It never closes if the connect attempt fails; failures
// surface through Receive instead.
func (c *Channel) Ready() <-chan struct{} {
	return c.ready.done()
}

// Receive returns the next inbound message. It blocks until the transport
// is connected and a message arrives. Connection and read failures return a
// *Error; a clean shutdown returns io.EOF. At most one Receive may be in
// flight; concurrent calls return ErrReceiverBusy.
func (c *Channel) Receive(ctx context.Context) (transport.Message, error) {
	return c.stream.receive(ctx)
}

// Send forwards one message to the transport. Messages sent before the
// connect attempt finishes are queued and delivered in issue order once it
// succeeds. Transport write errors are returned as raised, untranslated.
func (c *Channel) Send(ctx context.Context, msg transport.Message) error {
	return c.sink.send(ctx, msg)
}

// Close requests connection shutdown with the given status code and reason,
// forwarded verbatim to the transport. Messages sent before Close are
// delivered first. Repeated close behavior is transport-defined.
func (c *Channel) Close(code transport.StatusCode, reason string) error {
	return c.sink.close(code, reason)
}

// Subprotocol returns the negotiated sub-protocol. It is "" until the
// channel is ready.
func (c *Channel) Subprotocol() string {
	if tr := c.transport(); tr != nil {
		return tr.Subprotocol()
	}
	return ""
}

// CloseCode returns the close status, or transport.CodeNone until the
// connection has closed.
func (c *Channel) CloseCode() transport.StatusCode {
	if tr := c.transport(); tr != nil {
		return tr.CloseCode()
	}
	return transport.CodeNone
}

// CloseReason returns the close reason, or "" until the connection has
// closed.
func (c *Channel) CloseReason() string {
	if tr := c.transport(); tr != nil {
		return tr.CloseReason()
	}
	return ""
}

// transport returns the handle once the channel is ready, nil before that.
// Gating on readiness keeps metadata invisible until the ready signal fires.
func (c *Channel) transport() transport.Conn {
	if !c.ready.fired() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr
}
