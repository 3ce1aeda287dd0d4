package config

import "sockchan/pkg/transport"

// Dependencies contains injectable dependencies for testing and
// customization. All fields are optional and will use default
// implementations if nil.
type Dependencies struct {
	// Dialer replaces the scheme-selected transport dialer. Use it to dock
	// a channel onto a custom backend (e.g. the gorilla-based gws dialer)
	// or a fake transport in tests.
	Dialer transport.Dialer
}

// GetDialer returns the injected dialer, or nil if defaults should be used.
func GetDialer(deps *Dependencies) transport.Dialer {
	if deps != nil && deps.Dialer != nil {
		return deps.Dialer
	}
	return nil
}
