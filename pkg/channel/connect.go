package channel

import (
	"context"
	"fmt"
	"net/http"

	"sockchan/pkg/config"
	"sockchan/pkg/format"
	"sockchan/pkg/transport"
	"sockchan/pkg/transport/kcp"
	"sockchan/pkg/transport/ws"
)

// Connect opens a channel to addr and returns it synchronously, before any
// network activity completes. The dial runs in the background; await Ready
// if readiness matters, or just use the channel. Both the queued sends and
// the first Receive resolve once the connect attempt finishes.
//
// The address scheme selects the transport backend: ws:// and wss:// use
// coder/websocket, kcp:// uses KCP over UDP. An injected
// config.Dependencies.Dialer overrides the selection.
//
// opts may be nil. A positive opts.Timeout bounds the dial; on expiry the
// attempt is abandoned and the timeout arrives as the terminal *Error on the
// inbound sequence, like any other connect failure.
func Connect(ctx context.Context, addr string, opts *config.Options) *Channel {
	if opts == nil {
		opts = &config.Options{}
	}

	c := newChannel()
	go c.runConnect(ctx, addr, opts)
	return c
}

// runConnect is the asynchronous connect continuation. Exactly one of bind
// and fail is called on every path.
func (c *Channel) runConnect(ctx context.Context, addr string, opts *config.Options) {
	logger := opts.GetLogger()

	d, err := newDialer(addr, opts)
	if err != nil {
		c.fail(err)
		return
	}

	dctx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tr, err := d.Dial(dctx)
	if err != nil {
		logger.VerboseMsg("Connecting to %s failed: %v", addr, err)
		c.fail(err)
		return
	}

	if opts.PingInterval > 0 {
		tr.SetPingInterval(opts.PingInterval)
	}

	if err := c.bind(ctx, tr); err != nil {
		logger.ErrorMsg("Flushing queued operations to %s: %s\n", addr, err)
	}
	logger.VerboseMsg("Channel to %s ready", addr)
}

// newDialer selects a transport dialer for the target address.
func newDialer(addr string, opts *config.Options) (transport.Dialer, error) {
	if d := config.GetDialer(opts.Deps); d != nil {
		return d, nil
	}

	u, err := format.ParseURL(addr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "ws", "wss":
		return ws.NewDialer(u.String(), &ws.Options{
			Subprotocols: opts.Subprotocols,
			Header:       cloneHeader(opts.Header),
		}), nil

	case "kcp":
		d, err := kcp.NewDialer(u.Host)
		if err != nil {
			return nil, fmt.Errorf("kcp.NewDialer(%s): %w", u.Host, err)
		}
		return d, nil

	default:
		return nil, fmt.Errorf("parsing %s: unsupported scheme %q", addr, u.Scheme)
	}
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	return h.Clone()
}
