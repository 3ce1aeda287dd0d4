package kcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	kcp "github.com/xtaci/kcp-go/v5"

	"sockchan/pkg/log"
	"sockchan/pkg/semaphore"
	"sockchan/pkg/transport"
)

// Listener accepts KCP sessions and hands them out as framed connections.
type Listener struct {
	kcpListener *kcp.Listener
}

// Listen creates a KCP listener on the specified UDP address.
func Listen(addr string) (*Listener, error) {
	_, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ListenPacket(udp, %s): %w", addr, err)
	}

	// Parameters: block cipher (nil for no encryption), dataShards (0),
	// parityShards (0), conn
	kcpListener, err := kcp.ServeConn(nil, 0, 0, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("kcp.ServeConn(): %w", err)
	}

	return &Listener{kcpListener: kcpListener}, nil
}

// Accept blocks until the next session arrives.
func (l *Listener) Accept() (transport.Conn, error) {
	sess, err := l.kcpListener.AcceptKCP()
	if err != nil {
		return nil, fmt.Errorf("AcceptKCP(): %w", err)
	}
	return newConn(sess), nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr {
	return l.kcpListener.Addr()
}

// Close stops the listener.
func (l *Listener) Close() error {
	return l.kcpListener.Close()
}

// ListenAndServe accepts KCP sessions on addr and runs the handler for each,
// one goroutine per session, until the context is cancelled or the listener
// fails. Up to 100 sessions run concurrently; further accepts wait for a
// free slot.
func ListenAndServe(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger) error {
	l, err := Listen(addr)
	if err != nil {
		return err
	}
	defer l.Close()

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	sem := semaphore.New(100)
	for {
		if err := sem.Acquire(ctx); err != nil {
			return nil
		}

		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || isClosedErr(err) {
				return nil
			}
			return err
		}

		go func(conn transport.Conn) {
			defer sem.Release()
			defer func() { _ = conn.Close(transport.CodeGoingAway, "server shutting down") }()

			// Prevent a panic from killing the accept loop's sibling handlers.
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorMsg("Handler panic: %v\n", r)
				}
			}()

			if err := handler(conn); err != nil {
				logger.ErrorMsg("handling KCP connection: %s\n", err)
			}
		}(conn)
	}
}

// isClosedErr reports whether err is the usual noise of a closed listener.
func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		strings.Contains(err.Error(), "use of closed network connection")
}
