package gws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sockchan/pkg/transport"
)

// Options configures the WebSocket handshake.
type Options struct {
	// Subprotocols lists the sub-protocol names offered to the server.
	Subprotocols []string

	// Header carries extra headers for the opening handshake request.
	Header http.Header

	// HandshakeTimeout bounds the opening handshake. Zero means the
	// library default.
	HandshakeTimeout time.Duration

	// Insecure skips TLS certificate verification for wss targets.
	Insecure bool
}

// Dialer implements transport.Dialer for ws:// and wss:// URLs using
// gorilla/websocket.
type Dialer struct {
	url  string
	opts Options
}

// NewDialer creates a dialer for the given WebSocket URL. opts may be nil.
func NewDialer(url string, opts *Options) *Dialer {
	d := &Dialer{url: url}
	if opts != nil {
		d.opts = *opts
	}
	return d
}

// Dial performs the WebSocket handshake and returns the connection.
func (d *Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	dialer := websocket.Dialer{
		Subprotocols:     d.opts.Subprotocols,
		HandshakeTimeout: d.opts.HandshakeTimeout,
	}
	if d.opts.Insecure {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, resp, err := dialer.DialContext(ctx, d.url, d.opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket.DialContext(%s): %w", d.url, err)
	}
	return NewConn(conn), nil
}
