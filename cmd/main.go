package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"sockchan/cmd/connect"
	"sockchan/cmd/listen"
	"sockchan/cmd/version"
	"sockchan/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:  "sockchan",
		Usage: "duplex message channels over socket transports",
		Commands: []*cli.Command{
			connect.GetCommand(),
			listen.GetCommand(),
			version.GetCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}
