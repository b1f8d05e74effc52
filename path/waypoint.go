// Package path defines waypoints and the immutable polyline paths a pursuit controller follows.
package path

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Waypoint is a point on a path plus the target speed for the segment ending at it.
type Waypoint struct {
	Point r2.Point
	V     float64
}

// NewWaypoint returns a waypoint at (x, y) with target speed v.
func NewWaypoint(x, y, v float64) Waypoint {
	return Waypoint{Point: r2.Point{X: x, Y: y}, V: v}
}

// X returns the waypoint's x coordinate.
func (w Waypoint) X() float64 { return w.Point.X }

// Y returns the waypoint's y coordinate.
func (w Waypoint) Y() float64 { return w.Point.Y }

// Distance returns the euclidean distance from the waypoint to p.
func (w Waypoint) Distance(p r2.Point) float64 {
	return w.Point.Sub(p).Norm()
}

// Equal compares position and speed exactly.
func (w Waypoint) Equal(other Waypoint) bool {
	return w.Point == other.Point && w.V == other.V
}

func (w Waypoint) String() string {
	return fmt.Sprintf("(%g, %g, v=%g)", w.Point.X, w.Point.Y, w.V)
}

// waypointJSON is the on disk form of a Waypoint.
type waypointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	V float64 `json:"v"`
}
