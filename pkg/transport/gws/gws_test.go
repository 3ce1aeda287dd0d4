package gws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sockchan/pkg/transport"
)

type closeInfo struct {
	code int
	text string
}

// echoServer runs a gorilla/websocket echo endpoint and reports the close
// frame it receives from the client.
func echoServer(t *testing.T, subprotocols []string) (url string, closed <-chan closeInfo) {
	t.Helper()

	upgrader := websocket.Upgrader{Subprotocols: subprotocols}
	closedCh := make(chan closeInfo, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		for {
			typ, data, err := c.ReadMessage()
			if err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					closedCh <- closeInfo{code: ce.Code, text: ce.Text}
				}
				return
			}
			if err := c.WriteMessage(typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), closedCh
}

func TestConnEcho(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url, closed := echoServer(t, []string{"echo.v1"})

	d := NewDialer(url, &Options{
		Subprotocols:     []string{"echo.v1"},
		HandshakeTimeout: 5 * time.Second,
	})
	conn, err := d.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial() = %v", err)
	}

	if got := conn.Subprotocol(); got != "echo.v1" {
		t.Errorf("Subprotocol() = %q, want %q", got, "echo.v1")
	}

	msg := transport.Message{Type: transport.MessageBinary, Data: []byte{0xde, 0xad}}
	if err := conn.Send(ctx, msg); err != nil {
		t.Fatalf("Send() = %v", err)
	}

	echo, err := conn.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() = %v", err)
	}
	if echo.Type != transport.MessageBinary || string(echo.Data) != string(msg.Data) {
		t.Errorf("Receive() = %v %v, want binary %v", echo.Type, echo.Data, msg.Data)
	}

	if err := conn.Close(transport.CodeNormalClosure, "done"); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	select {
	case info := <-closed:
		if info.code != int(transport.CodeNormalClosure) || info.text != "done" {
			t.Errorf("server observed close %d %q, want %d %q",
				info.code, info.text, transport.CodeNormalClosure, "done")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never observed the close")
	}
}

func TestConnRemoteClose(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		frame := websocket.FormatCloseMessage(int(transport.CodeGoingAway), "maintenance")
		_ = c.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
		// Keep the conn open so the client reads the close frame, not a reset.
		_, _, _ = c.ReadMessage()
		_ = c.Close()
	}))
	t.Cleanup(srv.Close)

	d := NewDialer("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	conn, err := d.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial() = %v", err)
	}

	if _, err := conn.Receive(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Receive() after remote close = %v, want io.EOF", err)
	}
	if got := conn.CloseCode(); got != transport.CodeGoingAway {
		t.Errorf("CloseCode() = %d, want %d", got, transport.CodeGoingAway)
	}
	if got := conn.CloseReason(); got != "maintenance" {
		t.Errorf("CloseReason() = %q, want %q", got, "maintenance")
	}
}

func TestReceiveHonorsContext(t *testing.T) {
	t.Parallel()

	url, _ := echoServer(t, nil)
	d := NewDialer(url, nil)

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDial()
	conn, err := d.Dial(dialCtx)
	if err != nil {
		t.Fatalf("Dial() = %v", err)
	}
	defer conn.Close(transport.CodeNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := conn.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Receive() = %v, want context.DeadlineExceeded", err)
	}
}
