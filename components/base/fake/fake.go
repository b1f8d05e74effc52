// Package fake implements a simulated differential-drive base. It integrates the commanded
// side speeds into a pose and reports that pose back as odometry, which is enough to close
// the loop around a path following controller without hardware.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/pursuit/components/base"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/spatialmath"
	"go.viam.com/pursuit/utils"
)

// below this |ω| (rad/s) a step is integrated as a straight line.
const straightEpsilon = 1e-9

// Config is how you configure a fake base.
type Config struct {
	Width        float64 `json:"width"`
	MaxSpeed     float64 `json:"max_speed,omitempty"`
	StartX       float64 `json:"start_x,omitempty"`
	StartY       float64 `json:"start_y,omitempty"`
	StartHeading float64 `json:"start_heading,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Width == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "width")
	}
	if cfg.Width < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("width must be positive, got %v", cfg.Width))
	}
	if cfg.MaxSpeed < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("max_speed cannot be negative, got %v", cfg.MaxSpeed))
	}
	if !utils.IsFinite(cfg.Width, cfg.MaxSpeed, cfg.StartX, cfg.StartY, cfg.StartHeading) {
		return goutils.NewConfigValidationError(path, errors.New("values must be finite"))
	}
	return nil
}

// Base is a simulated differential-drive base. The commanded side speeds are held until
// the next command and applied to the pose on every Step.
type Base struct {
	mu     sync.Mutex
	logger logging.Logger

	width    float64
	maxSpeed float64

	pose        spatialmath.Pose2D
	left, right float64
	elapsed     time.Duration
	odometer    float64
	trace       []spatialmath.Pose2D
	closed      bool
}

var _ base.TankBase = (*Base)(nil)

// NewBase instantiates a new fake base at the configured start pose.
func NewBase(cfg Config, logger logging.Logger) (*Base, error) {
	if err := cfg.Validate("base"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("fake_base")
	}
	start := spatialmath.NewPose2D(cfg.StartX, cfg.StartY, utils.ModAngDeg(cfg.StartHeading))
	return &Base{
		logger:   logger,
		width:    cfg.Width,
		maxSpeed: cfg.MaxSpeed,
		pose:     start,
		trace:    []spatialmath.Pose2D{start},
	}, nil
}

// TankDrive sets the side speeds, clamped to the configured maximum speed.
func (b *Base) TankDrive(ctx context.Context, left, right float64, extra map[string]interface{}) error {
	if !utils.IsFinite(left, right) {
		return errors.Errorf("side speeds must be finite, got left %v right %v", left, right)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return base.ErrStopped
	}
	if b.maxSpeed > 0 {
		left = utils.Clamp(left, -b.maxSpeed, b.maxSpeed)
		right = utils.Clamp(right, -b.maxSpeed, b.maxSpeed)
	}
	b.left, b.right = left, right
	return nil
}

// Stop zeroes both side speeds.
func (b *Base) Stop(ctx context.Context, extra map[string]interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.left, b.right = 0, 0
	return nil
}

// Width returns the configured track width.
func (b *Base) Width(ctx context.Context) (float64, error) {
	return b.width, nil
}

// Position returns the simulated position.
func (b *Base) Position(ctx context.Context) (r2.Point, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pose.Point, nil
}

// Heading returns the simulated compass heading in [0, 360).
func (b *Base) Heading(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pose.Heading, nil
}

// Pose returns the simulated pose.
func (b *Base) Pose() spatialmath.Pose2D {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pose
}

// SetPose moves the base without driving, e.g. to model a localization jump.
func (b *Base) SetPose(pose spatialmath.Pose2D) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pose.Heading = utils.ModAngDeg(pose.Heading)
	b.pose = pose
	b.trace = append(b.trace, pose)
}

// Speeds returns the side speeds currently applied.
func (b *Base) Speeds() (left, right float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.left, b.right
}

// IsMoving reports whether either side has a non-zero speed.
func (b *Base) IsMoving(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.left != 0 || b.right != 0, nil
}

// Step advances the simulation by dt, moving along the arc given by the current side
// speeds.
func (b *Base) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	seconds := dt.Seconds()
	v := (b.left + b.right) / 2
	omega := (b.right - b.left) / b.width
	theta := spatialmath.CompassToStandard(b.pose.Heading)

	var next r2.Point
	var nextTheta float64
	if math.Abs(omega) < straightEpsilon {
		next = b.pose.Point.Add(r2.Point{X: math.Cos(theta), Y: math.Sin(theta)}.Mul(v * seconds))
		nextTheta = theta
	} else {
		radius := v / omega
		nextTheta = theta + omega*seconds
		next = r2.Point{
			X: b.pose.Point.X + radius*(math.Sin(nextTheta)-math.Sin(theta)),
			Y: b.pose.Point.Y - radius*(math.Cos(nextTheta)-math.Cos(theta)),
		}
	}

	b.odometer += math.Abs(v) * seconds
	b.elapsed += dt
	b.pose = spatialmath.Pose2D{Point: next, Heading: spatialmath.StandardToCompass(nextTheta)}
	b.trace = append(b.trace, b.pose)
}

// Elapsed returns the total simulated time.
func (b *Base) Elapsed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.elapsed
}

// Odometer returns the distance travelled by the center of the base.
func (b *Base) Odometer() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.odometer
}

// Trace returns every pose the base has been in, oldest first.
func (b *Base) Trace() []spatialmath.Pose2D {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]spatialmath.Pose2D(nil), b.trace...)
}

// TracePoints returns the positions of Trace.
func (b *Base) TracePoints() []r2.Point {
	return lo.Map(b.Trace(), func(p spatialmath.Pose2D, _ int) r2.Point { return p.Point })
}

// Close stops the base; later drive commands fail with base.ErrStopped.
func (b *Base) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.left, b.right = 0, 0
	if !b.closed {
		b.closed = true
		b.logger.CDebugw(ctx, "fake base closed", "pose", b.pose.String(), "odometer", b.odometer)
	}
	return nil
}
