package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// below this |cos| a heading line is treated as vertical.
const verticalEpsilon = 1e-12

// SegmentCircleIntersection intersects the segment P(t) = a + t(b-a), t in [0, 1], with the
// circle of the given radius around center. The smaller root is preferred when both lie
// on the segment. ok is false when the circle misses the segment or the segment has zero
// length.
func SegmentCircleIntersection(a, b, center r2.Point, radius float64) (t float64, ok bool) {
	d := b.Sub(a)
	f := a.Sub(center)

	qa := d.Dot(d)
	if qa == 0 {
		return 0, false
	}
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - radius*radius

	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return 0, false
	}
	disc = math.Sqrt(disc)
	t1 := (-qb - disc) / (2 * qa)
	t2 := (-qb + disc) / (2 * qa)
	if t1 >= 0 && t1 <= 1 {
		return t1, true
	}
	if t2 >= 0 && t2 <= 1 {
		return t2, true
	}
	return 0, false
}

// PointAlongSegment returns a + t(b-a).
func PointAlongSegment(a, b r2.Point, t float64) r2.Point {
	return a.Add(b.Sub(a).Mul(t))
}

// DistanceToLine returns the perpendicular distance from p to the line through origin at
// the given standard angle (radians). It uses the slope-intercept form of the line and
// falls back to the horizontal offset when the line is vertical.
func DistanceToLine(p, origin r2.Point, angle float64) float64 {
	if math.Abs(math.Cos(angle)) < verticalEpsilon {
		return math.Abs(p.X - origin.X)
	}
	slope := math.Tan(angle)
	freeTerm := slope*origin.X - origin.Y
	return math.Abs(-slope*p.X+p.Y+freeTerm) / math.Sqrt(slope*slope+1)
}

// SideOfLine returns the cross product of the heading direction at the given standard angle
// with the vector from origin to p, negated so that points clockwise of the heading are
// positive. Zero means p lies on the heading line.
func SideOfLine(p, origin r2.Point, angle float64) float64 {
	return math.Sin(angle)*(p.X-origin.X) - math.Cos(angle)*(p.Y-origin.Y)
}

// DistanceToSegment returns the distance from p to the closest point of the segment ab.
func DistanceToSegment(p, a, b r2.Point) float64 {
	d := b.Sub(a)
	lenSq := d.Dot(d)
	if lenSq == 0 {
		return p.Sub(a).Norm()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(d)/lenSq))
	return p.Sub(PointAlongSegment(a, b, t)).Norm()
}
