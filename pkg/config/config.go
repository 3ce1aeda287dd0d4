// Package config holds the user-facing options for opening channels.
package config

import (
	"fmt"
	"net/http"
	"time"

	"sockchan/pkg/log"
)

// Options configures how a channel is connected. The zero value is usable:
// no sub-protocols, no extra headers, no keep-alive pings, no connect
// timeout.
type Options struct {
	// Subprotocols lists the sub-protocol names offered during the
	// handshake, in preference order.
	Subprotocols []string

	// Header carries extra headers for the opening handshake. Ignored by
	// backends without a handshake header concept.
	Header http.Header

	// PingInterval enables transport keep-alive pings when positive.
	PingInterval time.Duration

	// Timeout bounds the connect attempt when positive. On expiry the
	// attempt is abandoned and reported like any other connect failure.
	Timeout time.Duration

	// Verbose enables debug logging on the default logger.
	Verbose bool

	// Logger overrides the default logger when set.
	Logger *log.Logger

	// Deps injects alternative implementations, mainly for tests.
	Deps *Dependencies
}

// Validate returns all configuration errors at once.
func (o *Options) Validate() []error {
	var errors []error

	if o.PingInterval < 0 {
		errors = append(errors, fmt.Errorf("ping interval must not be negative"))
	}

	if o.Timeout < 0 {
		errors = append(errors, fmt.Errorf("timeout must not be negative"))
	}

	return errors
}

// GetLogger returns the configured logger, or a default one honoring the
// Verbose flag.
func (o *Options) GetLogger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.NewLogger(o.Verbose)
}
