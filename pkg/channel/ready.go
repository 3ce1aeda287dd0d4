package channel

import "sync"

// readiness is a single-fire completion signal. It transitions from pending
// to fulfilled exactly once and carries no error: a channel whose connect
// attempt fails never becomes ready, the failure travels through the inbound
// sequence instead.
type readiness struct {
	once sync.Once
	ch   chan struct{}
}

func newReadiness() *readiness {
	return &readiness{ch: make(chan struct{})}
}

// fire fulfills the signal. Repeated calls are no-ops.
func (r *readiness) fire() {
	r.once.Do(func() { close(r.ch) })
}

// done returns a channel closed once the signal is fulfilled. Observers may
// grab it before or after fulfillment.
func (r *readiness) done() <-chan struct{} {
	return r.ch
}

// fired reports whether the signal has been fulfilled.
func (r *readiness) fired() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}
