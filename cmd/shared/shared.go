// Package shared holds flags and parsers used by several subcommands.
package shared

import "github.com/urfave/cli/v3"

// VerboseFlag enables debug logging.
const VerboseFlag = "verbose"

// GetFlags returns the flags every subcommand accepts.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    VerboseFlag,
			Aliases: []string{"v"},
			Usage:   "Enable verbose output",
		},
	}
}
