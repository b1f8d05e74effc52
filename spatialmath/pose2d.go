// Package spatialmath defines the planar geometry used for path tracking.
//
// Headings are compass style: degrees, 0 along +Y, increasing clockwise. Internally
// they are converted to standard mathematical angles (radians, 0 along +X,
// counter-clockwise) with CompassToStandard.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/pursuit/utils"
)

// Pose2D is a planar position plus a compass heading in degrees.
type Pose2D struct {
	Point   r2.Point
	Heading float64
}

// NewPose2D returns a pose at (x, y) with the given compass heading.
func NewPose2D(x, y, headingDeg float64) Pose2D {
	return Pose2D{Point: r2.Point{X: x, Y: y}, Heading: headingDeg}
}

func (p Pose2D) String() string {
	return fmt.Sprintf("{x: %.3f, y: %.3f, heading: %.2f°}", p.Point.X, p.Point.Y, p.Heading)
}

// CompassToStandard converts a compass heading in degrees to a standard angle in radians.
func CompassToStandard(yawDeg float64) float64 {
	return utils.DegToRad(90 - yawDeg)
}

// StandardToCompass converts a standard angle in radians to a compass heading in [0, 360).
func StandardToCompass(angle float64) float64 {
	return utils.ModAngDeg(90 - utils.RadToDeg(angle))
}

// HeadingVector returns the unit vector pointing along a compass heading.
func HeadingVector(yawDeg float64) r2.Point {
	angle := CompassToStandard(yawDeg)
	return r2.Point{X: math.Cos(angle), Y: math.Sin(angle)}
}

// HeadingBetween returns the compass heading of the direction from a to b.
func HeadingBetween(a, b r2.Point) float64 {
	d := b.Sub(a)
	return StandardToCompass(math.Atan2(d.Y, d.X))
}

// Sign returns -1, 0 or 1 matching the sign of v.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
