// Package main is the pursuit command line tool. It validates run configurations and
// simulates path following against a simulated differential-drive base.
package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagConfig    = "config"
	flagDebug     = "debug"
	flagDT        = "dt"
	flagMaxSteps  = "max-steps"
	flagPlot      = "plot"
	flagLookahead = "lookahead"
	flagTrace     = "trace"
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "pursuit",
		Usage:           "follow paths with a pure pursuit controller",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "simulate",
				Usage: "follow the configured path with a simulated base",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  flagDT,
						Usage: "integration step of the simulated base",
						Value: 20 * time.Millisecond,
					},
					&cli.IntFlag{
						Name:  flagMaxSteps,
						Usage: "maximum number of control cycles",
						Value: 100000,
					},
					&cli.Float64Flag{
						Name:  flagLookahead,
						Usage: "override the configured lookahead distance",
					},
					&cli.BoolFlag{
						Name:  flagTrace,
						Usage: "log every control cycle without raising the log level",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "save a plot of the path and the travelled trace to `FILE` (.png, .svg or .pdf)",
					},
				},
				Action: SimulateAction,
			},
			{
				Name:  "validate",
				Usage: "validate a configuration and its path",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
				},
				Action: ValidateAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
