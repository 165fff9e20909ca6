// Command geocode parses and geocodes addresses from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "geocode",
		Usage: "parse and geocode street addresses against the reference tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   formatText,
				Usage:   "output format: text, json or yaml",
			},
		},
		Commands: []*cli.Command{
			parseCommand(),
			geocodeCommand(),
			streetCommand(),
			intersectionCommand(),
			semiblockCommand(),
			batchCommand(),
			areaCommand(),
			suffixesCommand(),
		},
	}
}
