package channel

import (
	"context"
	"fmt"
	"sync"

	"sockchan/pkg/transport"
)

// sinkOp is one outbound operation issued before the sink was bound.
type sinkOp struct {
	isClose bool
	msg     transport.Message
	code    transport.StatusCode
	reason  string
}

// deferredSink is an outbound sink usable before its destination transport
// exists. Operations issued before bind are recorded in issue order and
// flushed to the destination at bind time. After a failed connect the queue
// is discarded and every operation returns the terminal error.
//
// The mutex covers the whole forward path, so writers are serialized; the
// gorilla backend requires that anyway.
type deferredSink struct {
	mu    sync.Mutex
	dst   transport.Conn
	queue []sinkOp
	err   error
}

// send forwards one message, or queues it while unbound. Queued sends return
// nil immediately; writes are fire-and-forget into the transport's own
// buffering.
func (s *deferredSink) send(ctx context.Context, msg transport.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if s.dst == nil {
		s.queue = append(s.queue, sinkOp{msg: msg})
		return nil
	}
	return s.dst.Send(ctx, msg)
}

// close forwards a close request, or queues it while unbound. Repeated close
// behavior is transport-defined; the sink adds no constraints of its own.
func (s *deferredSink) close(code transport.StatusCode, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if s.dst == nil {
		s.queue = append(s.queue, sinkOp{isClose: true, code: code, reason: reason})
		return nil
	}
	return s.dst.Close(code, reason)
}

// bind attaches the real destination and flushes queued operations in issue
// order. A flush error aborts the remaining queue and is returned; the
// writers that queued those operations have already returned, so the caller
// owns reporting it. Binding twice is a programming defect and panics.
func (s *deferredSink) bind(ctx context.Context, dst transport.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dst != nil {
		panic("channel: sink bound twice")
	}
	if s.err != nil {
		return s.err
	}

	s.dst = dst
	queue := s.queue
	s.queue = nil

	for _, op := range queue {
		if op.isClose {
			if err := dst.Close(op.code, op.reason); err != nil {
				return fmt.Errorf("flushing queued close: %w", err)
			}
			continue
		}
		if err := dst.Send(ctx, op.msg); err != nil {
			return fmt.Errorf("flushing queued message: %w", err)
		}
	}
	return nil
}

// fail marks the sink permanently unusable and discards the queue. Queued
// operations are dropped without error propagation; there is no destination
// to report them against. A no-op once bound.
func (s *deferredSink) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dst != nil || s.err != nil {
		return
	}
	s.err = err
	s.queue = nil
}
