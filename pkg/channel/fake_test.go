package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sockchan/pkg/transport"
)

// fakeConn is a scripted transport for channel tests. Inbound messages and
// errors are pushed through channels; outbound operations are recorded in
// issue order.
type fakeConn struct {
	recvCh chan transport.Message
	errCh  chan error

	mu          sync.Mutex
	ops         []string // "send:<data>" and "close:<code>:<reason>"
	sendErr     error
	proto       string
	ping        time.Duration
	closeCode   transport.StatusCode
	closeReason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		recvCh: make(chan transport.Message, 16),
		errCh:  make(chan error, 1),
	}
}

func (f *fakeConn) Receive(ctx context.Context) (transport.Message, error) {
	select {
	case msg := <-f.recvCh:
		return msg, nil
	case err := <-f.errCh:
		return transport.Message{}, err
	case <-ctx.Done():
		return transport.Message{}, ctx.Err()
	}
}

func (f *fakeConn) Send(ctx context.Context, msg transport.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.ops = append(f.ops, "send:"+string(msg.Data))
	return nil
}

func (f *fakeConn) Close(code transport.StatusCode, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("close:%d:%s", code, reason))
	if f.closeCode == transport.CodeNone {
		f.closeCode = code
		f.closeReason = reason
	}
	return nil
}

func (f *fakeConn) Subprotocol() string {
	return f.proto
}

func (f *fakeConn) CloseCode() transport.StatusCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

func (f *fakeConn) CloseReason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeReason
}

func (f *fakeConn) SetPingInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ping = d
}

func (f *fakeConn) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeConn) pingInterval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ping
}

// fakeDialer scripts the connect attempt. When gate is set, Dial waits for
// it to be closed (or the context to end) before returning.
type fakeDialer struct {
	conn transport.Conn
	err  error
	gate chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context) (transport.Conn, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}
