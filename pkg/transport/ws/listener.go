package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"sockchan/pkg/log"
	"sockchan/pkg/semaphore"
	"sockchan/pkg/transport"
)

// ListenAndServe creates a WebSocket listener and serves connections until
// the context is cancelled or an error occurs. Up to 100 concurrent
// connections are allowed; additional connections receive HTTP 503.
//
// subprotocols lists the sub-protocol names the server is willing to
// negotiate. The handler is called with each accepted connection; all
// cleanup is handled internally.
func ListenAndServe(ctx context.Context, addr string, subprotocols []string, handler transport.Handler, logger *log.Logger) error {
	listener, err := createNetListener(addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	sem := semaphore.New(100)
	server := createHTTPServer(handler, subprotocols, logger, sem)

	return serveWithContext(ctx, server, listener)
}

// createNetListener creates the TCP listener backing the HTTP server.
func createNetListener(addr string) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	nl, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("net.ListenTCP(tcp, %s): %w", tcpAddr.String(), err)
	}
	return nl, nil
}

// createHTTPServer creates an HTTP server that upgrades connections to WebSocket.
func createHTTPServer(handler transport.Handler, subprotocols []string, logger *log.Logger, sem *semaphore.ConnSemaphore) *http.Server {
	return &http.Server{
		Handler: createWebSocketHandler(handler, subprotocols, logger, sem),

		// Timeouts for long-lived message connections
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       0,                // Unlimited after headers
		WriteTimeout:      0,                // No write timeout
		IdleTimeout:       60 * time.Second, // Standard idle timeout
	}
}

// createWebSocketHandler creates an HTTP handler that upgrades to WebSocket.
func createWebSocketHandler(handler transport.Handler, subprotocols []string, logger *log.Logger, sem *semaphore.ConnSemaphore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sem.TryAcquire() {
			// All slots busy - reject with 503
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		defer sem.Release()

		handleWebSocketUpgrade(w, r, handler, subprotocols, logger)
	}
}

// handleWebSocketUpgrade upgrades the HTTP connection to WebSocket and handles it.
func handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request, handler transport.Handler, subprotocols []string, logger *log.Logger) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: subprotocols,
	})
	if err != nil {
		logger.ErrorMsg("websocket.Accept(): %s\n", err)
		return
	}

	conn := NewConn(c)
	logger.VerboseMsg("New WS connection from %s", r.RemoteAddr)

	defer func() { _ = conn.Close(transport.CodeGoingAway, "server shutting down") }()

	// Prevent panic from leaking resources
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorMsg("Handler panic: %v\n", r)
		}
	}()

	if err := handler(conn); err != nil {
		logger.ErrorMsg("handling WS connection: %s\n", err)
	}
}

// serveWithContext runs the HTTP server with context cancellation support.
func serveWithContext(ctx context.Context, server *http.Server, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		// Context cancelled - close listener
		_ = listener.Close()
		err := <-errCh
		// Treat closure as graceful shutdown
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving after cancellation: %w", err)

	case err := <-errCh:
		// Server exited on its own
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http.Server.Serve(): %w", err)
	}
}
