// Package semaphore limits the number of channels a listener serves
// concurrently.
package semaphore

import "context"

// ConnSemaphore bounds concurrent connections with a buffered channel of
// slots. A nil *ConnSemaphore is valid and imposes no limit.
type ConnSemaphore struct {
	slots chan struct{}
}

// New creates a semaphore with n slots, all available.
func New(n int) *ConnSemaphore {
	slots := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		slots <- struct{}{}
	}
	return &ConnSemaphore{slots: slots}
}

// TryAcquire takes a slot without blocking. It reports false when all slots
// are busy, letting the caller reject the connection instead of queueing it.
func (s *ConnSemaphore) TryAcquire() bool {
	if s == nil {
		return true
	}
	select {
	case <-s.slots:
		return true
	default:
		return false
	}
}

// Acquire blocks until a slot is free or the context is done.
func (s *ConnSemaphore) Acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must be called exactly once per successful acquire.
func (s *ConnSemaphore) Release() {
	if s == nil {
		return
	}
	s.slots <- struct{}{}
}
