// Package base defines the drive that a path follower sends side speeds to.
package base

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/pursuit/utils"
)

// A TankBase is a differential drive that is commanded by setting the speed of each side.
type TankBase interface {
	// TankDrive sets the left and right side speeds. Speeds share the unit of the path
	// waypoint speeds; positive drives forward.
	TankDrive(ctx context.Context, left, right float64, extra map[string]interface{}) error

	// Stop stops the base. It is assumed the base stops immediately.
	Stop(ctx context.Context, extra map[string]interface{}) error

	// Width returns the track width of the base, in path units.
	Width(ctx context.Context) (float64, error)
}

// ErrStopped is returned by bases that refuse commands after being closed.
var ErrStopped = errors.New("base is closed")

// CheckWidth returns an error when the track width reported by the base does not match the
// width a controller was tuned with, within the given relative tolerance.
func CheckWidth(ctx context.Context, b TankBase, expected, tolerance float64) error {
	width, err := b.Width(ctx)
	if err != nil {
		return errors.Wrap(err, "reading base width")
	}
	if width <= 0 {
		return errors.Errorf("base reported non-positive width %v", width)
	}
	if !utils.Float64AlmostEqual(width, expected, expected*tolerance) {
		return errors.Errorf("base width %v does not match configured robot width %v", width, expected)
	}
	return nil
}
