package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pursuit/config"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/simulation"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func newLogger(c *cli.Context, cfg *config.Config) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("pursuit")
	}
	logger := logging.NewLogger("pursuit")
	logger.SetLevel(cfg.LogLevel)
	return logger
}

// ValidateAction reads a configuration and reports whether it and its path are valid.
func ValidateAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s is valid: %d waypoints, %.3f long",
		c.String(flagConfig), cfg.Path.Len(), cfg.Path.Length())
	return nil
}

// SimulateAction follows the configured path with a simulated base and prints a summary.
func SimulateAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return err
	}
	if c.IsSet(flagLookahead) {
		cfg.Controller.LookaheadDistance = c.Float64(flagLookahead)
	}
	logger := newLogger(c, cfg)
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	ctx := c.Context
	if c.Bool(flagTrace) {
		ctx = logging.EnableDebugMode(ctx, "simulate")
	}
	report, err := simulation.Run(ctx, cfg, logger, simulation.Options{
		DT:       c.Duration(flagDT),
		MaxSteps: c.Int(flagMaxSteps),
	})
	if err != nil {
		return errors.Wrap(err, "simulation failed")
	}

	printf(c.App.Writer, "%s", renderReport(cfg, report))
	if filename := c.String(flagPlot); filename != "" {
		if err := savePlot(filename, cfg.Path, report.Trace); err != nil {
			return err
		}
		printf(c.App.Writer, "plot saved to %s", filename)
	}
	return nil
}

func renderReport(cfg *config.Config, report *simulation.Report) string {
	status := color.New(color.FgGreen).Sprint(report.Reason)
	if !report.Finished {
		status = color.New(color.FgYellow).Sprint(report.Reason)
	}

	t := table.NewWriter()
	t.SetTitle("pure pursuit simulation")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"status", status},
		{"lookahead", fmt.Sprintf("%.3f", cfg.Controller.LookaheadDistance)},
		{"waypoints", cfg.Path.Len()},
		{"path length", fmt.Sprintf("%.3f", cfg.Path.Length())},
		{"control cycles", report.Steps},
		{"simulated time", report.Elapsed},
		{"distance driven", fmt.Sprintf("%.3f", report.Distance)},
		{"final pose", report.Final.String()},
		{"goal error", fmt.Sprintf("%.3f", report.GoalError)},
		{"heading error", fmt.Sprintf("%.2f°", report.HeadingError)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"cross-track mean", fmt.Sprintf("%.4f", report.CrossTrack.Mean)},
		{"cross-track median", fmt.Sprintf("%.4f", report.CrossTrack.Median)},
		{"cross-track p95", fmt.Sprintf("%.4f", report.CrossTrack.P95)},
		{"cross-track max", fmt.Sprintf("%.4f", report.CrossTrack.Max)},
		{"cross-track stddev", fmt.Sprintf("%.4f", report.CrossTrack.StdDev)},
	})
	return t.Render()
}
