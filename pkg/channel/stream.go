package channel

import (
	"context"
	"errors"
	"io"
	"sync"

	"sockchan/pkg/transport"
)

// deferredStream is an inbound message sequence whose source transport may
// not exist yet. Consumers may call receive immediately; the call blocks
// until the source is supplied (or the connect attempt fails), then forwards
// to the transport with error translation applied.
//
// At most one receive call may be in flight; a second concurrent call is
// rejected with ErrReceiverBusy rather than silently competing for messages.
type deferredStream struct {
	mu       sync.Mutex
	busy     bool
	resolved bool
	src      transport.Conn
	term     error // terminal error, latched; io.EOF for a clean end

	sourced chan struct{}
}

func newDeferredStream() *deferredStream {
	return &deferredStream{sourced: make(chan struct{})}
}

// supply sets the source sequence. Elements requested before supply are
// delivered once the source resolves, in transport order. Resolving the
// stream twice is a programming defect and panics.
func (s *deferredStream) supply(src transport.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved {
		panic("channel: stream sourced twice")
	}
	s.resolved = true
	s.src = src
	close(s.sourced)
}

// fail resolves the stream with a terminal error instead of a source. The
// sequence then emits exactly that error and nothing else, ever.
func (s *deferredStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved {
		panic("channel: stream sourced twice")
	}
	s.resolved = true
	s.term = err
	close(s.sourced)
}

// receive returns the next inbound message. Transport read failures are
// translated into *Error and latched: every later call returns the same
// terminal error. A clean remote shutdown returns io.EOF, untranslated.
// Context cancellation is the caller's own doing and returns ctx.Err() raw.
func (s *deferredStream) receive(ctx context.Context) (transport.Message, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return transport.Message{}, ErrReceiverBusy
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	select {
	case <-s.sourced:
	case <-ctx.Done():
		return transport.Message{}, ctx.Err()
	}

	s.mu.Lock()
	if s.term != nil {
		err := s.term
		s.mu.Unlock()
		return transport.Message{}, err
	}
	src := s.src
	s.mu.Unlock()

	msg, err := src.Receive(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.latch(io.EOF)
			return transport.Message{}, io.EOF
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return transport.Message{}, err
		}
		terr := translate(err)
		s.latch(terr)
		return transport.Message{}, terr
	}
	return msg, nil
}

// latch records the terminal error, first writer wins.
func (s *deferredStream) latch(err error) {
	s.mu.Lock()
	if s.term == nil {
		s.term = err
	}
	s.mu.Unlock()
}
