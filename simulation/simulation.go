// Package simulation runs a path following episode against the fake base in simulated
// time, so a controller tuning can be evaluated without hardware or a wall clock.
package simulation

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/pursuit/components/base"
	"go.viam.com/pursuit/components/base/fake"
	"go.viam.com/pursuit/config"
	"go.viam.com/pursuit/control"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/services/follower"
	"go.viam.com/pursuit/spatialmath"
	"go.viam.com/pursuit/utils"
)

const (
	defaultDT       = 20 * time.Millisecond
	defaultMaxSteps = 100000

	// ReasonMaxSteps is reported when the step budget runs out before the path ends.
	ReasonMaxSteps = "max steps"

	widthTolerance = 0.01
)

// Options tune the integration of a run.
type Options struct {
	// DT is the integration step of the base. Control cycles run at the follower
	// frequency and the base is integrated in DT sized substeps in between.
	DT time.Duration
	// MaxSteps bounds the number of control cycles.
	MaxSteps int
}

// ErrorStats summarizes the distance between the robot and the path over a run.
type ErrorStats struct {
	Mean   float64
	Median float64
	P95    float64
	Max    float64
	StdDev float64
}

// Report is the outcome of a run.
type Report struct {
	Steps     int
	Finished  bool
	Reason    string
	Elapsed   time.Duration
	Distance  float64
	Final     spatialmath.Pose2D
	GoalError float64
	// HeadingError is the angle between the final heading and the last path segment, in
	// degrees. It is zero for paths without a direction.
	HeadingError float64
	CrossTrack   ErrorStats
	Trace        []spatialmath.Pose2D
	Commands     []control.Command
}

// Run follows cfg.Path with a fresh fake base, controller and follower.
func Run(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.DT <= 0 {
		opts.DT = defaultDT
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if logger == nil {
		logger = logging.NewBlankLogger("simulation")
	}

	fb, err := fake.NewBase(cfg.Base, logger.Sublogger("base"))
	if err != nil {
		return nil, err
	}
	if err := base.CheckWidth(ctx, fb, cfg.Controller.RobotWidth, widthTolerance); err != nil {
		logger.Warnw("controller and base disagree on track width", "error", err)
	}
	pp, err := control.NewPurePursuit(cfg.Controller, cfg.Path, fb, logger.Sublogger("pure_pursuit"))
	if err != nil {
		return nil, err
	}

	report := &Report{}
	f, err := follower.New(cfg.Follower, pp, fb, logger.Sublogger("follower"),
		follower.WithTickHook(func(cmd control.Command) {
			report.Commands = append(report.Commands, cmd)
		}))
	if err != nil {
		return nil, err
	}

	var crossTrack []float64
	for report.Steps < opts.MaxSteps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Steps++
		cmd, err := f.Step(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", report.Steps)
		}
		crossTrack = append(crossTrack, cfg.Path.DistanceTo(fb.Pose().Point))
		if cmd.Finished() {
			report.Finished = true
			report.Reason = follower.ReasonFinished
			break
		}
		for remaining := f.Period(); remaining > 0; remaining -= opts.DT {
			fb.Step(min(opts.DT, remaining))
		}
	}
	if !report.Finished {
		report.Reason = ReasonMaxSteps
		if err := fb.Stop(ctx, nil); err != nil {
			return nil, err
		}
	}

	report.Elapsed = fb.Elapsed()
	report.Distance = fb.Odometer()
	report.Final = fb.Pose()
	report.GoalError = cfg.Path.Last().Distance(report.Final.Point)
	if heading, ok := cfg.Path.FinalHeading(); ok {
		report.HeadingError = utils.AngleDiffDeg(report.Final.Heading, heading)
	}
	report.Trace = fb.Trace()
	report.CrossTrack, err = summarize(crossTrack)
	if err != nil {
		return nil, err
	}
	logger.Infow("simulation done",
		"reason", report.Reason,
		"steps", report.Steps,
		"elapsed", report.Elapsed,
		"final", report.Final.String())
	return report, nil
}

func summarize(samples []float64) (ErrorStats, error) {
	var out ErrorStats
	var err error
	if out.Mean, err = stats.Mean(samples); err != nil {
		return out, err
	}
	if out.Median, err = stats.Median(samples); err != nil {
		return out, err
	}
	if out.P95, err = stats.PercentileNearestRank(samples, 95); err != nil {
		return out, err
	}
	if out.Max, err = stats.Max(samples); err != nil {
		return out, err
	}
	if out.StdDev, err = stats.StandardDeviation(samples); err != nil {
		return out, err
	}
	return out, nil
}
