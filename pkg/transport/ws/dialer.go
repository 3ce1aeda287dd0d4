package ws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"sockchan/pkg/transport"
)

// Options configures the WebSocket handshake.
type Options struct {
	// Subprotocols lists the sub-protocol names offered to the server.
	Subprotocols []string

	// Header carries extra headers for the opening handshake request.
	Header http.Header

	// HTTPClient overrides the client used for the handshake.
	HTTPClient *http.Client

	// Insecure skips TLS certificate verification for wss targets.
	Insecure bool
}

// Dialer implements transport.Dialer for ws:// and wss:// URLs.
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
	opts := &websocket.DialOptions{
		Subprotocols: d.opts.Subprotocols,
		HTTPHeader:   d.opts.Header,
		HTTPClient:   d.opts.HTTPClient,
	}
	if opts.HTTPClient == nil && d.opts.Insecure {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}

	c, _, err := websocket.Dial(ctx, d.url, opts)
	if err != nil {
		return nil, fmt.Errorf("websocket.Dial(%s): %w", d.url, err)
	}
	return NewConn(c), nil
}
