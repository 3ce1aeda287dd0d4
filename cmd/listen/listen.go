// Package listen implements the listen command, an echo server that accepts
// channels over WebSocket or KCP and mirrors every message back.
package listen

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"sockchan/cmd/shared"
	"sockchan/pkg/log"
	"sockchan/pkg/transport"
	"sockchan/pkg/transport/kcp"
	"sockchan/pkg/transport/ws"
)

const categoryListen = "listen"

const kcpFlag = "kcp"
const subprotocolFlag = "subprotocol"

// GetCommand returns the CLI command for listen mode.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "listen",
		Usage:     "Run an echo server",
		ArgsUsage: "host:port",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("must provide exactly one listen address, got %d", args.Len())
			}

			addr := args.Get(0)
			logger := log.NewLogger(cmd.Bool(shared.VerboseFlag))
			logger.InfoMsg("Listening on %s\n", addr)

			handler := echoHandler(ctx, logger)

			if cmd.Bool(kcpFlag) {
				return kcp.ListenAndServe(ctx, addr, handler, logger)
			}
			return ws.ListenAndServe(ctx, addr, cmd.StringSlice(subprotocolFlag), handler, logger)
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:     kcpFlag,
				Usage:    "Serve KCP over UDP instead of WebSocket",
				Category: categoryListen,
			},
			&cli.StringSliceFlag{
				Name:     subprotocolFlag,
				Usage:    "Sub-protocol to accept (repeatable)",
				Category: categoryListen,
			},
		}, shared.GetFlags()...),
	}
}

// echoHandler mirrors every inbound message back to the sender.
func echoHandler(ctx context.Context, logger *log.Logger) transport.Handler {
	return func(conn transport.Conn) error {
		for {
			msg, err := conn.Receive(ctx)
			if errors.Is(err, io.EOF) {
				logger.VerboseMsg("Peer closed: %d %q", conn.CloseCode(), conn.CloseReason())
				return nil
			}
			if err != nil {
				return fmt.Errorf("receiving: %w", err)
			}

			if err := conn.Send(ctx, msg); err != nil {
				return fmt.Errorf("echoing %s message of %d bytes: %w", msg.Type, len(msg.Data), err)
			}
		}
	}
}
