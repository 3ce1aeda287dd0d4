package channel

import "errors"

// ErrReceiverBusy is returned by Receive when another Receive call is
// already in flight. The inbound sequence has at most one consumer.
var ErrReceiverBusy = errors.New("channel: concurrent receive")

// Error is the uniform error type for all connection-phase and read-phase
// failures: connect errors, connect timeouts, and read failures on an
// established transport all surface as *Error. The original cause is
// available through Unwrap, so errors.Is/As see through it.
//
// Outbound failures are not wrapped; Send and Close return whatever the
// transport raised.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return "channel: " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// translate wraps err into *Error unless it already is one.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return err
	}
	return &Error{Cause: err}
}
