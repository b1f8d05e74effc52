package control

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/path"
	"go.viam.com/pursuit/spatialmath"
	"go.viam.com/pursuit/utils"
)

// PoseProvider supplies the robot's estimated pose. It is read fresh on every controller
// call and never cached by the controller.
type PoseProvider interface {
	// Position returns the robot position in the path's coordinate frame.
	Position(ctx context.Context) (r2.Point, error)
	// Heading returns the compass heading in degrees: 0 along +Y, increasing clockwise.
	Heading(ctx context.Context) (float64, error)
}

// PurePursuit steers a differential-drive robot along a path by aiming at the point of the
// path one lookahead distance away and converting the arc to that point into per-side
// speeds.
//
// Progress along the path only moves forward: the closest point and lookahead searches
// start at the indices found on the previous call, so points the robot has passed are
// never considered again until Reset.
//
// A PurePursuit is not safe for concurrent use. Build one per path following episode
// and drive it from a single goroutine.
type PurePursuit struct {
	path   *path.Path
	poses  PoseProvider
	logger logging.Logger

	lookaheadDistance float64
	robotWidth        float64
	goalTolerance     float64

	lastClosestIndex   int
	lastLookaheadIndex int
	status             Status
}

// NewPurePursuit returns an idle controller for the given path.
func NewPurePursuit(
	cfg PurePursuitConfig,
	p *path.Path,
	poses PoseProvider,
	logger logging.Logger,
) (*PurePursuit, error) {
	if err := cfg.Validate("pure_pursuit"); err != nil {
		return nil, err
	}
	if p == nil || p.Len() == 0 {
		return nil, path.ErrEmptyPath
	}
	if poses == nil {
		return nil, errors.New("pure pursuit requires a pose provider")
	}
	if logger == nil {
		logger = logging.NewBlankLogger("pure_pursuit")
	}
	return &PurePursuit{
		path:              p,
		poses:             poses,
		logger:            logger,
		lookaheadDistance: cfg.LookaheadDistance,
		robotWidth:        cfg.RobotWidth,
		goalTolerance:     cfg.GoalTolerance,
		status:            StatusIdle,
	}, nil
}

// Path returns the path being followed.
func (pp *PurePursuit) Path() *path.Path {
	return pp.path
}

// Status returns the current phase of the episode.
func (pp *PurePursuit) Status() Status {
	return pp.status
}

// Indices returns the lower bounds of the closest point and lookahead searches.
func (pp *PurePursuit) Indices() (closest, lookahead int) {
	return pp.lastClosestIndex, pp.lastLookaheadIndex
}

// LookaheadDistance returns the current lookahead radius.
func (pp *PurePursuit) LookaheadDistance() float64 {
	return pp.lookaheadDistance
}

// SetLookaheadDistance changes the lookahead radius. It must not be called mid cycle.
func (pp *PurePursuit) SetLookaheadDistance(distance float64) error {
	if !(distance > 0) || math.IsInf(distance, 0) {
		return errors.Errorf("lookahead distance must be positive and finite, got %v", distance)
	}
	pp.lookaheadDistance = distance
	return nil
}

// RobotWidth returns the configured track width.
func (pp *PurePursuit) RobotWidth() float64 {
	return pp.robotWidth
}

// SetRobotWidth changes the track width. It must not be called mid cycle.
func (pp *PurePursuit) SetRobotWidth(width float64) error {
	if !(width > 0) || math.IsInf(width, 0) {
		return errors.Errorf("robot width must be positive and finite, got %v", width)
	}
	pp.robotWidth = width
	return nil
}

// Reset rewinds both search indices to the start of the path. Call it before following
// the path, and again before following it a second time; the controller never resets
// itself.
func (pp *PurePursuit) Reset() {
	pp.lastClosestIndex = 0
	pp.lastLookaheadIndex = 0
	pp.status = StatusIdle
}

// ClosestPoint returns the waypoint nearest to the robot among those not yet passed, and
// its index.
func (pp *PurePursuit) ClosestPoint(ctx context.Context) (path.Waypoint, int, error) {
	pose, err := pp.currentPose(ctx)
	if err != nil {
		return path.Waypoint{}, 0, err
	}
	wp, idx := pp.closestPoint(pose.Point)
	return wp, idx, nil
}

// LookaheadPoint returns the point on the path exactly one lookahead distance from the
// robot, searching forward from the last segment that produced one. ok is false when no
// remaining segment intersects the lookahead circle, which means the robot is at or past
// the reachable end of the path.
func (pp *PurePursuit) LookaheadPoint(ctx context.Context) (point r2.Point, ok bool, err error) {
	pose, err := pp.currentPose(ctx)
	if err != nil {
		return r2.Point{}, false, err
	}
	point, ok = pp.lookaheadPoint(ctx, pose.Point)
	return point, ok, nil
}

// Curvature returns the signed curvature of the arc from the robot to the lookahead
// point. Positive curvature means the aim point is clockwise of the heading, so the left
// side must run faster. ok is false when there is no lookahead point.
func (pp *PurePursuit) Curvature(ctx context.Context) (curvature float64, ok bool, err error) {
	pose, err := pp.currentPose(ctx)
	if err != nil {
		return 0, false, err
	}
	curvature, ok = pp.curvature(ctx, pose)
	return curvature, ok, nil
}

// TargetSpeeds runs one control cycle: it takes the target speed from the closest
// waypoint and the curvature toward the lookahead point, and maps them to per-side
// speeds. Once the path has ended the returned command has StatusFinished and the caller
// should halt the drive.
func (pp *PurePursuit) TargetSpeeds(ctx context.Context) (Command, error) {
	if pp.status == StatusFinished {
		return Command{Status: StatusFinished}, nil
	}
	pose, err := pp.currentPose(ctx)
	if err != nil {
		return Command{}, err
	}

	closest, _ := pp.closestPoint(pose.Point)
	curvature, ok := pp.curvature(ctx, pose)
	if !ok {
		return Command{Status: StatusFinished}, nil
	}
	if pp.status == StatusIdle {
		pp.status = StatusTracking
		pp.logger.CDebugw(ctx, "pure pursuit tracking", "pose", pose.String())
	}

	v := closest.V
	return Command{
		Status:    StatusTracking,
		Left:      v * (2 + curvature*pp.robotWidth) / 2,
		Right:     v * (2 - curvature*pp.robotWidth) / 2,
		Speed:     v,
		Curvature: curvature,
	}, nil
}

// Done reports whether the episode is over. It advances the closest point search and is
// true once the closest waypoint and every waypoint after it sit at the final waypoint's
// position, or, with a goal tolerance configured, once the robot is within that tolerance
// of it. It stays true until Reset.
func (pp *PurePursuit) Done(ctx context.Context) (bool, error) {
	if pp.status == StatusFinished {
		return true, nil
	}
	pose, err := pp.currentPose(ctx)
	if err != nil {
		return false, err
	}

	_, idx := pp.closestPoint(pose.Point)
	switch {
	case pp.onlyGoalRemains(idx):
		pp.finish(ctx, "final waypoint is closest")
	case pp.goalTolerance > 0 && pp.path.Last().Distance(pose.Point) <= pp.goalTolerance:
		pp.finish(ctx, "within goal tolerance")
	}
	return pp.status == StatusFinished, nil
}

func (pp *PurePursuit) currentPose(ctx context.Context) (spatialmath.Pose2D, error) {
	pos, err := pp.poses.Position(ctx)
	if err != nil {
		return spatialmath.Pose2D{}, errors.Wrap(err, "reading robot position")
	}
	heading, err := pp.poses.Heading(ctx)
	if err != nil {
		return spatialmath.Pose2D{}, errors.Wrap(err, "reading robot heading")
	}
	if !utils.IsFinite(pos.X, pos.Y, heading) {
		return spatialmath.Pose2D{}, errors.Errorf("pose provider returned a non-finite pose (%v, %v)", pos, heading)
	}
	return spatialmath.Pose2D{Point: pos, Heading: heading}, nil
}

func (pp *PurePursuit) closestPoint(robot r2.Point) (path.Waypoint, int) {
	minDistance := math.Inf(1)
	minIndex := pp.lastClosestIndex
	for i := pp.lastClosestIndex; i < pp.path.Len(); i++ {
		if distance := pp.path.At(i).Distance(robot); distance < minDistance {
			minIndex = i
			minDistance = distance
		}
	}
	pp.lastClosestIndex = minIndex
	return pp.path.At(minIndex), minIndex
}

// onlyGoalRemains reports whether waypoints from idx to the end all repeat the final
// position. The closest point search keeps the first of equal distances, so a repeated
// final waypoint never becomes the closest index itself.
func (pp *PurePursuit) onlyGoalRemains(idx int) bool {
	goal := pp.path.Last().Point
	for i := idx; i < pp.path.Len(); i++ {
		if pp.path.At(i).Point != goal {
			return false
		}
	}
	return true
}

func (pp *PurePursuit) lookaheadPoint(ctx context.Context, robot r2.Point) (r2.Point, bool) {
	for i := pp.lastLookaheadIndex; i < pp.path.Len()-1; i++ {
		a, b := pp.path.Segment(i)
		t, ok := spatialmath.SegmentCircleIntersection(a, b, robot, pp.lookaheadDistance)
		if !ok {
			continue
		}
		pp.lastLookaheadIndex = i
		return spatialmath.PointAlongSegment(a, b, t), true
	}
	pp.finish(ctx, "no lookahead point")
	return r2.Point{}, false
}

func (pp *PurePursuit) curvature(ctx context.Context, pose spatialmath.Pose2D) (float64, bool) {
	lookahead, ok := pp.lookaheadPoint(ctx, pose.Point)
	if !ok {
		return 0, false
	}
	angle := spatialmath.CompassToStandard(pose.Heading)
	side := spatialmath.SideOfLine(lookahead, pose.Point, angle)
	if side == 0 {
		return 0, true
	}
	x := spatialmath.DistanceToLine(lookahead, pose.Point, angle)
	return 2 * x / (pp.lookaheadDistance * pp.lookaheadDistance) * spatialmath.Sign(side), true
}

func (pp *PurePursuit) finish(ctx context.Context, reason string) {
	if pp.status == StatusFinished {
		return
	}
	pp.status = StatusFinished
	pp.logger.CDebugw(ctx, "pure pursuit finished",
		"reason", reason,
		"closest_index", pp.lastClosestIndex,
		"lookahead_index", pp.lastLookaheadIndex)
}
