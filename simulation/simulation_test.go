package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/pursuit/components/base/fake"
	"go.viam.com/pursuit/config"
	"go.viam.com/pursuit/control"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/path"
	"go.viam.com/pursuit/services/follower"
)

func offsetLineConfig(t *testing.T) *config.Config {
	t.Helper()
	line, err := path.FromTriples([3]float64{0, 0, 1}, [3]float64{5, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	dense, err := line.Densify(0.25)
	test.That(t, err, test.ShouldBeNil)
	return &config.Config{
		Controller: control.PurePursuitConfig{LookaheadDistance: 1, RobotWidth: 0.5},
		Follower:   follower.Config{FrequencyHz: 20},
		Base:       fake.Config{Width: 0.5, StartY: 0.5, StartHeading: 90},
		Path:       dense,
	}
}

func TestRunConverges(t *testing.T) {
	report, err := Run(context.Background(), offsetLineConfig(t), logging.NewTestLogger(t), Options{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Finished, test.ShouldBeTrue)
	test.That(t, report.Reason, test.ShouldEqual, follower.ReasonFinished)
	test.That(t, len(report.Commands), test.ShouldEqual, report.Steps)
	test.That(t, report.Commands[len(report.Commands)-1].Finished(), test.ShouldBeTrue)
	test.That(t, report.Elapsed, test.ShouldEqual, time.Duration(report.Steps-1)*50*time.Millisecond)

	// the start offset is the worst the robot ever does
	test.That(t, report.CrossTrack.Max, test.ShouldAlmostEqual, 0.5)
	test.That(t, report.CrossTrack.Mean, test.ShouldBeLessThan, 0.5)
	test.That(t, report.CrossTrack.P95, test.ShouldBeLessThanOrEqualTo, report.CrossTrack.Max)

	test.That(t, report.Final.Point.X, test.ShouldBeGreaterThan, 3.5)
	test.That(t, report.GoalError, test.ShouldBeLessThan, 1.5)
	test.That(t, report.HeadingError, test.ShouldBeLessThan, 30)
	test.That(t, report.Distance, test.ShouldBeGreaterThan, 3.5)
	test.That(t, len(report.Trace), test.ShouldBeGreaterThan, report.Steps)
}

func TestRunSquare(t *testing.T) {
	cfg, err := config.Read("testdata/square.json")
	test.That(t, err, test.ShouldBeNil)

	report, err := Run(context.Background(), cfg, logging.NewTestLogger(t), Options{DT: 10 * time.Millisecond})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Finished, test.ShouldBeTrue)
	test.That(t, report.GoalError, test.ShouldBeLessThan, 0.5)
	test.That(t, report.CrossTrack.Max, test.ShouldBeLessThan, 0.5)
	test.That(t, report.Distance, test.ShouldBeGreaterThan, 6)
}

func TestRunMaxSteps(t *testing.T) {
	report, err := Run(context.Background(), offsetLineConfig(t), logging.NewTestLogger(t), Options{MaxSteps: 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Finished, test.ShouldBeFalse)
	test.That(t, report.Reason, test.ShouldEqual, ReasonMaxSteps)
	test.That(t, report.Steps, test.ShouldEqual, 3)
	test.That(t, len(report.Commands), test.ShouldEqual, 3)
	test.That(t, report.Elapsed, test.ShouldEqual, 150*time.Millisecond)
}

func TestRunWidthMismatch(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg := offsetLineConfig(t)
	cfg.Base.Width = 0.6

	report, err := Run(context.Background(), cfg, logger, Options{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Finished, test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("controller and base disagree on track width").Len(), test.ShouldEqual, 1)
}

func TestRunErrors(t *testing.T) {
	cfg := offsetLineConfig(t)
	cfg.Follower.FrequencyHz = 0
	_, err := Run(context.Background(), cfg, nil, Options{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frequency_hz")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, offsetLineConfig(t), nil, Options{})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
