package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const version = "0.3.0"

func main() {
	app := &cli.App{
		Name:    "ghtray",
		Usage:   "Watch your GitHub pull requests, sorted by what needs you",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: config.yaml in the data dir)",
				EnvVars: []string{"GHTRAY_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "Use built-in sample data and identicons, no network access",
			},
			&cli.BoolFlag{
				Name:    "no-tui",
				Usage:   "Run headless even when attached to a terminal",
				EnvVars: []string{"GHTRAY_NO_TUI"},
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			onceCommand(),
			identiconCommand(),
			statusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
