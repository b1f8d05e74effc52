package path

import (
	"encoding/json"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/pursuit/spatialmath"
	"go.viam.com/pursuit/utils"
)

// ErrEmptyPath is returned when a path with no waypoints is built. Following an empty path
// is a programming error, so it is rejected at construction.
var ErrEmptyPath = errors.New("path must contain at least one waypoint")

// Path is an ordered, non-empty, read-only sequence of waypoints. The robot traverses it in
// index order; segment i runs from waypoint i to waypoint i+1.
type Path struct {
	waypoints []Waypoint
}

// New builds a path from a copy of the given waypoints.
func New(waypoints ...Waypoint) (*Path, error) {
	if len(waypoints) == 0 {
		return nil, ErrEmptyPath
	}
	for i, wp := range waypoints {
		if !utils.IsFinite(wp.Point.X, wp.Point.Y, wp.V) {
			return nil, errors.Errorf("waypoint %d %v is not finite", i, wp)
		}
	}
	return &Path{waypoints: append([]Waypoint(nil), waypoints...)}, nil
}

// FromTriples builds a path from (x, y, v) triples.
func FromTriples(triples ...[3]float64) (*Path, error) {
	return New(lo.Map(triples, func(t [3]float64, _ int) Waypoint {
		return NewWaypoint(t[0], t[1], t[2])
	})...)
}

// Len returns the number of waypoints.
func (p *Path) Len() int {
	return len(p.waypoints)
}

// At returns waypoint i. It panics when i is out of range, like a slice index.
func (p *Path) At(i int) Waypoint {
	return p.waypoints[i]
}

// Last returns the final waypoint.
func (p *Path) Last() Waypoint {
	return p.waypoints[len(p.waypoints)-1]
}

// Waypoints returns a copy of the waypoints.
func (p *Path) Waypoints() []Waypoint {
	return append([]Waypoint(nil), p.waypoints...)
}

// Points returns the waypoint positions.
func (p *Path) Points() []r2.Point {
	return lo.Map(p.waypoints, func(wp Waypoint, _ int) r2.Point { return wp.Point })
}

// Segment returns the endpoints of segment i, which runs from waypoint i to i+1.
func (p *Path) Segment(i int) (r2.Point, r2.Point) {
	return p.waypoints[i].Point, p.waypoints[i+1].Point
}

// Length returns the total length of the polyline.
func (p *Path) Length() float64 {
	total := 0.
	for i := 0; i+1 < len(p.waypoints); i++ {
		a, b := p.Segment(i)
		total += floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
	}
	return total
}

// DistanceTo returns the distance from pt to the closest point of the polyline, the
// cross-track error of a robot at pt.
func (p *Path) DistanceTo(pt r2.Point) float64 {
	if len(p.waypoints) == 1 {
		return p.waypoints[0].Distance(pt)
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(p.waypoints); i++ {
		a, b := p.Segment(i)
		best = math.Min(best, spatialmath.DistanceToSegment(pt, a, b))
	}
	return best
}

// FinalHeading returns the compass heading of the last segment with distinct endpoints.
// ok is false when every waypoint sits at the same position.
func (p *Path) FinalHeading() (heading float64, ok bool) {
	for i := len(p.waypoints) - 2; i >= 0; i-- {
		a, b := p.Segment(i)
		if a != b {
			return spatialmath.HeadingBetween(a, b), true
		}
	}
	return 0, false
}

// Densify returns a path with extra waypoints injected so that no segment is longer than
// spacing. Every original waypoint is kept, and injected waypoints take the speed of the
// waypoint ending their segment, so each new segment keeps the speed of the one it splits.
func (p *Path) Densify(spacing float64) (*Path, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, errors.Errorf("spacing must be positive and finite, got %v", spacing)
	}
	out := make([]Waypoint, 0, len(p.waypoints))
	for i := 0; i+1 < len(p.waypoints); i++ {
		end := p.waypoints[i+1]
		out = append(out, p.waypoints[i])
		a, b := p.Segment(i)
		n := int(math.Max(1, math.Ceil(a.Sub(b).Norm()/spacing)))
		for k := 1; k < n; k++ {
			pt := spatialmath.PointAlongSegment(a, b, float64(k)/float64(n))
			out = append(out, Waypoint{Point: pt, V: end.V})
		}
	}
	out = append(out, p.Last())
	return New(out...)
}

// MarshalJSON encodes the path as a list of {"x", "y", "v"} objects.
func (p *Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(lo.Map(p.waypoints, func(wp Waypoint, _ int) waypointJSON {
		return waypointJSON{X: wp.Point.X, Y: wp.Point.Y, V: wp.V}
	}))
}

// UnmarshalJSON decodes a list of {"x", "y", "v"} objects, applying the same checks as New.
func (p *Path) UnmarshalJSON(data []byte) error {
	var raw []waypointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := New(lo.Map(raw, func(w waypointJSON, _ int) Waypoint {
		return NewWaypoint(w.X, w.Y, w.V)
	})...)
	if err != nil {
		return err
	}
	*p = *built
	return nil
}
