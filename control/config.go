package control

import (
	"math"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// PurePursuitConfig holds the tuning parameters of a pure pursuit controller. Distances
// share the unit of the path coordinates; speeds share the unit of the waypoint speeds.
type PurePursuitConfig struct {
	// LookaheadDistance is the radius of the circle used to find the aim point.
	LookaheadDistance float64 `json:"lookahead_distance"`
	// RobotWidth is the track width between the two drive sides.
	RobotWidth float64 `json:"robot_width"`
	// GoalTolerance, when positive, also ends an episode once the robot is this close to
	// the final waypoint.
	GoalTolerance float64 `json:"goal_tolerance,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *PurePursuitConfig) Validate(path string) error {
	if cfg.LookaheadDistance == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "lookahead_distance")
	}
	if !(cfg.LookaheadDistance > 0) || math.IsInf(cfg.LookaheadDistance, 0) {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("lookahead_distance must be positive and finite, got %v", cfg.LookaheadDistance))
	}
	if cfg.RobotWidth == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "robot_width")
	}
	if !(cfg.RobotWidth > 0) || math.IsInf(cfg.RobotWidth, 0) {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("robot_width must be positive and finite, got %v", cfg.RobotWidth))
	}
	if !(cfg.GoalTolerance >= 0) || math.IsInf(cfg.GoalTolerance, 0) {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("goal_tolerance must be non-negative and finite, got %v", cfg.GoalTolerance))
	}
	return nil
}
