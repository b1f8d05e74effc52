package follower

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/pursuit/components/base/fake"
	"go.viam.com/pursuit/control"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/path"
	"go.viam.com/pursuit/testutils"
	"go.viam.com/pursuit/testutils/inject"
)

func TestMain(m *testing.M) {
	testutils.VerifyTestMain(m)
}

// straightPath samples the x axis from 0 to length every 0.25.
func straightPath(t *testing.T, length, speed float64) *path.Path {
	t.Helper()
	var wps []path.Waypoint
	for x := 0.0; x <= length+1e-9; x += 0.25 {
		wps = append(wps, path.NewWaypoint(x, 0, speed))
	}
	p, err := path.New(wps...)
	test.That(t, err, test.ShouldBeNil)
	return p
}

func newRig(
	t *testing.T,
	p *path.Path,
	baseCfg fake.Config,
	poses control.PoseProvider,
) (*control.PurePursuit, *fake.Base) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	fb, err := fake.NewBase(baseCfg, logger.Sublogger("base"))
	test.That(t, err, test.ShouldBeNil)
	if poses == nil {
		poses = fb
	}
	pp, err := control.NewPurePursuit(
		control.PurePursuitConfig{LookaheadDistance: 1, RobotWidth: baseCfg.Width},
		p, poses, logger.Sublogger("pure_pursuit"))
	test.That(t, err, test.ShouldBeNil)
	return pp, fb
}

type followResult struct {
	res Result
	err error
}

// followWithMock runs Follow while advancing the mock clock and the simulated base in
// lockstep.
func followWithMock(t *testing.T, f *Follower, mock *clock.Mock, fb *fake.Base) (Result, error) {
	t.Helper()
	ch := make(chan followResult, 1)
	go func() {
		res, err := f.Follow(context.Background())
		ch <- followResult{res, err}
	}()
	for i := 0; i < 20000; i++ {
		select {
		case out := <-ch:
			return out.res, out.err
		default:
		}
		fb.Step(f.Period())
		mock.Add(f.Period())
	}
	t.Fatal("Follow did not return")
	return Result{}, nil
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		cfg Config
		err string
	}{
		{Config{FrequencyHz: 20}, ""},
		{Config{FrequencyHz: 200, Timeout: "90s"}, ""},
		{Config{}, `"frequency_hz" is required`},
		{Config{FrequencyHz: -1}, "frequency_hz"},
		{Config{FrequencyHz: 201}, "above 200Hz"},
		{Config{FrequencyHz: 20, Timeout: "soon"}, "timeout"},
		{Config{FrequencyHz: 20, Timeout: "-1s"}, "negative"},
		{Config{FrequencyHz: 20, MaxAcceleration: 0.5}, ""},
		{Config{FrequencyHz: 20, MaxAcceleration: -0.5}, "max_acceleration"},
		{Config{FrequencyHz: math.NaN()}, "frequency_hz"},
		{Config{FrequencyHz: math.Inf(1)}, "above 200Hz"},
		{Config{FrequencyHz: 20, MaxAcceleration: math.NaN()}, "max_acceleration"},
		{Config{FrequencyHz: 20, MaxAcceleration: math.Inf(1)}, "max_acceleration"},
	} {
		err := tc.cfg.Validate("follower")
		if tc.err == "" {
			test.That(t, err, test.ShouldBeNil)
			continue
		}
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
	}

	cfg := Config{FrequencyHz: 20}
	test.That(t, cfg.Period(), test.ShouldEqual, 50*time.Millisecond)
}

func TestNew(t *testing.T) {
	pp, fb := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5, StartHeading: 90}, nil)
	logger := logging.NewTestLogger(t)

	_, err := New(Config{}, pp, fb, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(Config{FrequencyHz: 20}, nil, fb, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(Config{FrequencyHz: 20}, pp, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	f, err := New(Config{FrequencyHz: 10}, pp, fb, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Period(), test.ShouldEqual, 100*time.Millisecond)
}

func TestStepConvergesToPath(t *testing.T) {
	ctx := context.Background()
	pp, fb := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5, StartY: 0.5, StartHeading: 90}, nil)

	var commands []control.Command
	f, err := New(Config{FrequencyHz: 20}, pp, fb, logging.NewTestLogger(t),
		WithTickHook(func(cmd control.Command) { commands = append(commands, cmd) }))
	test.That(t, err, test.ShouldBeNil)

	finished := false
	for i := 0; i < 1000 && !finished; i++ {
		cmd, err := f.Step(ctx)
		test.That(t, err, test.ShouldBeNil)
		finished = cmd.Finished()
		fb.Step(f.Period())
	}
	test.That(t, finished, test.ShouldBeTrue)
	test.That(t, pp.Status(), test.ShouldEqual, control.StatusFinished)

	// the first command turns right toward the path below the robot
	test.That(t, commands[0].Curvature, test.ShouldBeGreaterThan, 0)
	test.That(t, commands[0].Left, test.ShouldBeGreaterThan, commands[0].Right)
	for _, cmd := range commands[:len(commands)-1] {
		test.That(t, cmd.Status, test.ShouldEqual, control.StatusTracking)
		test.That(t, math.IsNaN(cmd.Left) || math.IsNaN(cmd.Right), test.ShouldBeFalse)
	}
	test.That(t, commands[len(commands)-1].Finished(), test.ShouldBeTrue)

	pose := fb.Pose()
	test.That(t, pose.Point.X, test.ShouldBeGreaterThan, 3.5)
	test.That(t, math.Abs(pose.Point.Y), test.ShouldBeLessThan, 0.2)

	moving, err := fb.IsMoving(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, moving, test.ShouldBeFalse)

	// finished is sticky
	cmd, err := f.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd.Finished(), test.ShouldBeTrue)
}

func TestStepLimitsAcceleration(t *testing.T) {
	ctx := context.Background()
	pp, fb := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5, StartHeading: 90}, nil)
	f, err := New(Config{FrequencyHz: 20, MaxAcceleration: 2}, pp, fb, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	for i := 1; i <= 3; i++ {
		cmd, err := f.Step(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cmd.Speed, test.ShouldEqual, 1.0)
		left, right := fb.Speeds()
		test.That(t, left, test.ShouldAlmostEqual, 0.1*float64(i))
		test.That(t, right, test.ShouldAlmostEqual, 0.1*float64(i))
	}
}

func TestStepRejectsNonFiniteCommands(t *testing.T) {
	ctx := context.Background()
	fb, err := fake.NewBase(fake.Config{Width: 0.5}, nil)
	test.That(t, err, test.ShouldBeNil)
	f, err := New(Config{FrequencyHz: 20}, &stubController{cmd: control.Command{
		Status: control.StatusTracking,
		Left:   math.Inf(1),
		Right:  1,
	}}, fb, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	_, err = f.Step(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "non-finite")
	left, right := fb.Speeds()
	test.That(t, left, test.ShouldEqual, 0.0)
	test.That(t, right, test.ShouldEqual, 0.0)
}

func TestFollow(t *testing.T) {
	pp, fb := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5, StartHeading: 90}, nil)
	mock := clock.NewMock()

	var hookCalls atomic.Int32
	f, err := New(Config{FrequencyHz: 20, Timeout: "1m"}, pp, fb, logging.NewTestLogger(t),
		WithClock(mock),
		WithTickHook(func(control.Command) { hookCalls.Add(1) }))
	test.That(t, err, test.ShouldBeNil)

	res, err := followWithMock(t, f, mock, fb)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Finished, test.ShouldBeTrue)
	test.That(t, res.Reason, test.ShouldEqual, ReasonFinished)
	test.That(t, res.Episode, test.ShouldNotEqual, uuid.Nil)
	test.That(t, res.Ticks, test.ShouldBeGreaterThan, 1)
	test.That(t, int(hookCalls.Load()), test.ShouldEqual, res.Ticks)
	test.That(t, res.Elapsed > 0, test.ShouldBeTrue)

	left, right := fb.Speeds()
	test.That(t, left, test.ShouldEqual, 0.0)
	test.That(t, right, test.ShouldEqual, 0.0)
	test.That(t, fb.Pose().Point.X, test.ShouldBeGreaterThan, 3.5)

	// a second episode starts from a reset controller and gets its own id
	res2, err := followWithMock(t, f, mock, fb)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res2.Episode, test.ShouldNotEqual, res.Episode)
}

func TestFollowTimeout(t *testing.T) {
	pp, fb := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5, StartHeading: 90}, nil)
	mock := clock.NewMock()

	var stops atomic.Int32
	stalled := inject.NewBase(fb)
	stalled.TankDriveFunc = func(ctx context.Context, left, right float64, extra map[string]interface{}) error {
		return nil
	}
	stalled.StopFunc = func(ctx context.Context, extra map[string]interface{}) error {
		stops.Add(1)
		return fb.Stop(ctx, extra)
	}

	f, err := New(Config{FrequencyHz: 10, Timeout: "1s"}, pp, stalled, logging.NewTestLogger(t), WithClock(mock))
	test.That(t, err, test.ShouldBeNil)

	res, err := followWithMock(t, f, mock, fb)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrTimeout), test.ShouldBeTrue)
	test.That(t, res.Reason, test.ShouldEqual, ReasonTimeout)
	test.That(t, res.Finished, test.ShouldBeFalse)
	test.That(t, int(stops.Load()), test.ShouldEqual, 1)
	test.That(t, fb.Pose().Point, test.ShouldResemble, r2.Point{})
}

func TestFollowPoseError(t *testing.T) {
	fb, err := fake.NewBase(fake.Config{Width: 0.5, StartHeading: 90}, nil)
	test.That(t, err, test.ShouldBeNil)
	poses := &inject.PoseProvider{PoseProvider: fb}
	poses.HeadingFunc = func(ctx context.Context) (float64, error) {
		return 0, errors.New("no imu")
	}
	pp, _ := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5}, poses)

	var stops atomic.Int32
	b := inject.NewBase(fb)
	b.StopFunc = func(ctx context.Context, extra map[string]interface{}) error {
		stops.Add(1)
		return errors.New("stop failed")
	}

	f, err := New(Config{FrequencyHz: 10}, pp, b, logging.NewTestLogger(t), WithClock(clock.NewMock()))
	test.That(t, err, test.ShouldBeNil)

	res, err := f.Follow(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "tick 1")
	test.That(t, err.Error(), test.ShouldContainSubstring, "no imu")
	test.That(t, err.Error(), test.ShouldContainSubstring, "stop failed")
	test.That(t, res.Reason, test.ShouldEqual, ReasonError)
	test.That(t, res.Ticks, test.ShouldEqual, 1)
	test.That(t, int(stops.Load()), test.ShouldEqual, 1)
}

func TestStartStop(t *testing.T) {
	pp, fb := newRig(t, straightPath(t, 5, 1), fake.Config{Width: 0.5, StartHeading: 90}, nil)
	f, err := New(Config{FrequencyHz: 10}, pp, fb, logging.NewTestLogger(t), WithClock(clock.NewMock()))
	test.That(t, err, test.ShouldBeNil)

	_, err = f.Stop()
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, f.Start(context.Background()), test.ShouldBeNil)
	test.That(t, f.Start(context.Background()), test.ShouldNotBeNil)

	res, err := f.Stop()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Reason, test.ShouldEqual, ReasonCancelled)
	test.That(t, res.Finished, test.ShouldBeFalse)
	moving, err := fb.IsMoving(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, moving, test.ShouldBeFalse)

	_, err = f.Wait()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStartWait(t *testing.T) {
	p, err := path.FromTriples([3]float64{0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	pp, fb := newRig(t, p, fake.Config{Width: 0.5}, nil)
	f, err := New(Config{FrequencyHz: 10}, pp, fb, logging.NewTestLogger(t), WithClock(clock.NewMock()))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, f.Start(context.Background()), test.ShouldBeNil)
	res, err := f.Wait()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Finished, test.ShouldBeTrue)
	test.That(t, res.Ticks, test.ShouldEqual, 1)

	// the follower can run again once the previous episode was collected
	test.That(t, f.Start(context.Background()), test.ShouldBeNil)
	res, err = f.Wait()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Finished, test.ShouldBeTrue)
}

type stubController struct {
	cmd  control.Command
	done bool
}

func (s *stubController) TargetSpeeds(ctx context.Context) (control.Command, error) {
	return s.cmd, nil
}

func (s *stubController) Done(ctx context.Context) (bool, error) {
	return s.done, nil
}

func (s *stubController) Reset() {}
