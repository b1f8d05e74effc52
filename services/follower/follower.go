// Package follower drives a tank base along a path by running a pure pursuit controller at
// a fixed rate and forwarding its side speeds to the base.
package follower

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/pursuit/components/base"
	"go.viam.com/pursuit/control"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/utils"
)

// ErrTimeout is returned by Follow when the episode outlives the configured timeout.
var ErrTimeout = errors.New("path following timed out")

// Reasons an episode ended, reported in Result.Reason.
const (
	ReasonFinished  = "finished"
	ReasonTimeout   = "timeout"
	ReasonCancelled = "cancelled"
	ReasonError     = "error"
)

// Controller is the part of control.PurePursuit the follower needs.
type Controller interface {
	TargetSpeeds(ctx context.Context) (control.Command, error)
	Done(ctx context.Context) (bool, error)
	Reset()
}

var _ Controller = (*control.PurePursuit)(nil)

// Result summarizes one episode.
type Result struct {
	Episode  uuid.UUID
	Ticks    int
	Finished bool
	Reason   string
	Elapsed  time.Duration
}

// Option configures a Follower.
type Option func(*Follower)

// WithClock replaces the wall clock, e.g. with a clock.Mock in tests.
func WithClock(c clock.Clock) Option {
	return func(f *Follower) {
		f.clock = c
	}
}

// WithTickHook registers a function called with the command of every control cycle.
func WithTickHook(hook func(control.Command)) Option {
	return func(f *Follower) {
		f.tickHook = hook
	}
}

// Follower runs path following episodes. Follow and Step must not be called
// concurrently; Start, Stop and Wait may be called from any goroutine.
type Follower struct {
	controller Controller
	base       base.TankBase
	logger     logging.Logger
	clock      clock.Clock
	tickHook   func(control.Command)
	limiter    *control.AccelerationLimiter

	period  time.Duration
	timeout time.Duration

	mu      sync.Mutex
	workers utils.StoppableWorkers
	result  Result
	err     error
}

// New returns a follower for the given controller and base.
func New(cfg Config, controller Controller, b base.TankBase, logger logging.Logger, opts ...Option) (*Follower, error) {
	if err := cfg.Validate("follower"); err != nil {
		return nil, err
	}
	if controller == nil {
		return nil, errors.New("follower requires a controller")
	}
	if b == nil {
		return nil, errors.New("follower requires a base")
	}
	timeout, err := cfg.timeout()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("follower")
	}
	f := &Follower{
		controller: controller,
		base:       b,
		logger:     logger,
		clock:      clock.New(),
		period:     cfg.Period(),
		timeout:    timeout,
	}
	if cfg.MaxAcceleration > 0 {
		if f.limiter, err = control.NewAccelerationLimiter(cfg.MaxAcceleration); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Period returns the time between two control cycles.
func (f *Follower) Period() time.Duration {
	return f.period
}

// Step runs one control cycle. It stops the base and returns a finished command once the
// controller reports the path is done; otherwise it forwards the side speeds to the base.
func (f *Follower) Step(ctx context.Context) (control.Command, error) {
	done, err := f.controller.Done(ctx)
	if err != nil {
		return control.Command{}, err
	}
	cmd := control.Command{Status: control.StatusFinished}
	if !done {
		cmd, err = f.controller.TargetSpeeds(ctx)
		if err != nil {
			return control.Command{}, err
		}
	}
	if !cmd.Finished() && !utils.IsFinite(cmd.Left, cmd.Right) {
		return cmd, errors.Errorf("controller produced a non-finite command %v", cmd)
	}
	if f.limiter != nil {
		cmd = f.limiter.Limit(cmd, f.period)
	}
	if f.tickHook != nil {
		f.tickHook(cmd)
	}

	if cmd.Finished() {
		return cmd, errors.Wrap(f.base.Stop(ctx, nil), "stopping base")
	}
	if err := f.base.TankDrive(ctx, cmd.Left, cmd.Right, nil); err != nil {
		return cmd, errors.Wrap(err, "driving base")
	}
	return cmd, nil
}

// Follow resets the controller and runs control cycles at the configured rate until the
// path is finished, the timeout passes, ctx is cancelled or a cycle fails. The base is
// always stopped before Follow returns.
func (f *Follower) Follow(ctx context.Context) (res Result, err error) {
	res = Result{Episode: uuid.New()}
	start := f.clock.Now()
	f.logger.Infow("starting path following", "episode", res.Episode, "period", f.period, "timeout", f.timeout)

	defer func() {
		res.Elapsed = f.clock.Since(start)
		err = multierr.Combine(err, errors.Wrap(f.base.Stop(context.WithoutCancel(ctx), nil), "stopping base"))
		if err != nil && res.Reason == ReasonFinished {
			res.Reason = ReasonError
		}
		f.logger.Infow("path following ended",
			"episode", res.Episode,
			"reason", res.Reason,
			"ticks", res.Ticks,
			"elapsed", res.Elapsed)
	}()

	f.controller.Reset()
	if f.limiter != nil {
		f.limiter.Reset()
	}

	ticker := f.clock.Ticker(f.period)
	defer ticker.Stop()
	var deadline <-chan time.Time
	if f.timeout > 0 {
		timer := f.clock.Timer(f.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		res.Ticks++
		cmd, err := f.Step(ctx)
		if err != nil {
			res.Reason = ReasonError
			return res, errors.Wrapf(err, "episode %s tick %d", res.Episode, res.Ticks)
		}
		if cmd.Finished() {
			res.Finished = true
			res.Reason = ReasonFinished
			return res, nil
		}
		f.logger.CDebugw(ctx, "tick", "episode", res.Episode, "command", cmd.String())

		select {
		case <-ctx.Done():
			res.Reason = ReasonCancelled
			return res, ctx.Err()
		case <-deadline:
			res.Reason = ReasonTimeout
			return res, errors.Wrapf(ErrTimeout, "after %v", f.timeout)
		case <-ticker.C:
		}
	}
}

// Start runs Follow in the background. It fails if an episode is already running.
func (f *Follower) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.workers != nil {
		return errors.New("follower is already running")
	}
	f.result, f.err = Result{}, nil
	f.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		res, err := f.Follow(ctx)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.result, f.err = res, err
	})
	return nil
}

// Stop cancels a background episode and returns its result. Cancellation itself is not
// reported as an error.
func (f *Follower) Stop() (Result, error) {
	return f.collect(func(w utils.StoppableWorkers) { w.Stop() })
}

// Wait blocks until a background episode ends on its own and returns its result.
func (f *Follower) Wait() (Result, error) {
	return f.collect(func(w utils.StoppableWorkers) { w.Wait() })
}

func (f *Follower) collect(wait func(utils.StoppableWorkers)) (Result, error) {
	f.mu.Lock()
	workers := f.workers
	f.mu.Unlock()
	if workers == nil {
		return Result{}, errors.New("follower is not running")
	}
	wait(workers)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.workers == workers {
		f.workers = nil
	}
	err := f.err
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return f.result, err
}
