// Package connect implements the connect command, which opens a channel to
// a remote endpoint and pipes stdin lines out as text messages while
// printing inbound messages to stdout.
package connect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"sockchan/cmd/shared"
	"sockchan/pkg/channel"
	"sockchan/pkg/config"
	"sockchan/pkg/log"
	"sockchan/pkg/transport"
)

const categoryConnect = "connect"

const subprotocolFlag = "subprotocol"
const headerFlag = "header"
const pingFlag = "ping"
const timeoutFlag = "timeout"

// GetCommand returns the CLI command for connect mode.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a remote endpoint (ws://, wss:// or kcp://)",
		ArgsUsage: "url",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("must provide exactly one target URL, got %d", args.Len())
			}

			header, err := shared.ParseHeaders(cmd.StringSlice(headerFlag))
			if err != nil {
				return fmt.Errorf("parsing headers: %s", err)
			}

			opts := &config.Options{
				Subprotocols: cmd.StringSlice(subprotocolFlag),
				Header:       header,
				PingInterval: cmd.Duration(pingFlag),
				Timeout:      cmd.Duration(timeoutFlag),
				Verbose:      cmd.Bool(shared.VerboseFlag),
			}

			if errors := opts.Validate(); len(errors) > 0 {
				log.ErrorMsg("Argument validation errors:\n")
				for _, err := range errors {
					log.ErrorMsg(" - %s\n", err)
				}
				return fmt.Errorf("exiting")
			}

			return run(ctx, args.Get(0), opts)
		},
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     subprotocolFlag,
				Usage:    "Sub-protocol to offer (repeatable)",
				Category: categoryConnect,
			},
			&cli.StringSliceFlag{
				Name:     headerFlag,
				Usage:    "Extra handshake header as 'Name: value' (repeatable)",
				Category: categoryConnect,
			},
			&cli.DurationFlag{
				Name:     pingFlag,
				Usage:    "Keep-alive ping interval (e.g. 30s, 0 disables)",
				Category: categoryConnect,
			},
			&cli.DurationFlag{
				Name:     timeoutFlag,
				Aliases:  []string{"t"},
				Usage:    "Connect timeout (e.g. 5s, 0 waits forever)",
				Category: categoryConnect,
			},
		}, shared.GetFlags()...),
	}
}

func run(parent context.Context, url string, opts *config.Options) error {
	logger := opts.GetLogger()
	logger.InfoMsg("Connecting to %s\n", url)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	ch := channel.Connect(ctx, url, opts)

	go func() {
		select {
		case <-ch.Ready():
			logger.VerboseMsg("Channel ready, sub-protocol %q", ch.Subprotocol())
		case <-ctx.Done():
		}
	}()

	go sendLoop(ctx, ch, logger)

	for {
		msg, err := ch.Receive(ctx)
		if errors.Is(err, io.EOF) {
			logger.InfoMsg("Connection closed: %d %q\n", ch.CloseCode(), ch.CloseReason())
			return nil
		}
		if err != nil {
			return fmt.Errorf("receiving: %w", err)
		}
		fmt.Println(string(msg.Data))
	}
}

// sendLoop pipes stdin lines out as text messages and closes the channel on
// stdin EOF.
func sendLoop(ctx context.Context, ch *channel.Channel, logger *log.Logger) {
	in := newStdin()
	defer in.Close()
	go func() {
		<-ctx.Done()
		_ = in.Close() // unblock a pending read
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		if err := ch.Send(ctx, transport.Message{Type: transport.MessageText, Data: line}); err != nil {
			logger.ErrorMsg("Sending: %s\n", err)
			return
		}
	}

	if err := ch.Close(transport.CodeNormalClosure, "done"); err != nil {
		logger.ErrorMsg("Closing channel: %s\n", err)
	}
}
