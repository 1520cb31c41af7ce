package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Orientation classifies a straight segment.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
	Diagonal
	Degenerate
)

// String returns the lowercase name used in output records.
func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Diagonal:
		return "diagonal"
	default:
		return "point"
	}
}

// Segment is a straight line between two points of the same frame.
type Segment struct {
	A, B Point
}

// Seg is shorthand for constructing a Segment.
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{A: Point{x1, y1}, B: Point{x2, y2}}
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return Euclidean(s.A, s.B)
}

// Orientation returns the segment's orientation in its own frame.
func (s Segment) Orientation() Orientation {
	dx := math.Abs(s.B[0] - s.A[0])
	dy := math.Abs(s.B[1] - s.A[1])
	switch {
	case dx <= Epsilon && dy <= Epsilon:
		return Degenerate
	case dy <= Epsilon:
		return Horizontal
	case dx <= Epsilon:
		return Vertical
	default:
		return Diagonal
	}
}

// Direction returns the unit vector from A to B, or zero for a degenerate segment.
func (s Segment) Direction() Point {
	l := s.Length()
	if l <= Epsilon {
		return Point{}
	}
	return Point{(s.B[0] - s.A[0]) / l, (s.B[1] - s.A[1]) / l}
}

// Reverse returns the segment running from B to A.
func (s Segment) Reverse() Segment {
	return Segment{A: s.B, B: s.A}
}

// LineString returns the segment as an orb line string.
func (s Segment) LineString() orb.LineString {
	return orb.LineString{s.A, s.B}
}

// Bound returns the segment's bounding box.
func (s Segment) Bound() Box {
	return NewBox(s.A[0], s.A[1], s.B[0], s.B[1])
}

// PointSegmentDistance returns the shortest distance from p to the segment.
func PointSegmentDistance(p Point, s Segment) float64 {
	return planar.DistanceFromSegment(s.A, s.B, p)
}

// ClosestOnSegment returns the point of s nearest to p.
func ClosestOnSegment(p Point, s Segment) Point {
	dx := s.B[0] - s.A[0]
	dy := s.B[1] - s.A[1]
	l2 := dx*dx + dy*dy
	if l2 <= Epsilon {
		return s.A
	}
	t := ((p[0]-s.A[0])*dx + (p[1]-s.A[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return Point{s.A[0] + t*dx, s.A[1] + t*dy}
}

// Intersection returns the crossing point of two segments, if they touch.
// Overlapping collinear segments report the first shared endpoint found.
func Intersection(s, o Segment) (Point, bool) {
	d1 := cross(o.A, o.B, s.A)
	d2 := cross(o.A, o.B, s.B)
	d3 := cross(s.A, s.B, o.A)
	d4 := cross(s.A, s.B, o.B)

	if ((d1 > Epsilon && d2 < -Epsilon) || (d1 < -Epsilon && d2 > Epsilon)) &&
		((d3 > Epsilon && d4 < -Epsilon) || (d3 < -Epsilon && d4 > Epsilon)) {
		t := d3 / (d3 - d4)
		return Point{o.A[0] + t*(o.B[0]-o.A[0]), o.A[1] + t*(o.B[1]-o.A[1])}, true
	}

	switch {
	case math.Abs(d1) <= Epsilon && onSegment(o, s.A):
		return s.A, true
	case math.Abs(d2) <= Epsilon && onSegment(o, s.B):
		return s.B, true
	case math.Abs(d3) <= Epsilon && onSegment(s, o.A):
		return o.A, true
	case math.Abs(d4) <= Epsilon && onSegment(s, o.B):
		return o.B, true
	}
	return Point{}, false
}

// SegmentDistance returns the minimum distance between two segments.
func SegmentDistance(s, o Segment) float64 {
	d, _, _ := ClosestPoints(s, o)
	return d
}

// ClosestPoints returns the minimum distance between s and o and the pair of points attaining it.
// The first point lies on s, the second on o.
func ClosestPoints(s, o Segment) (float64, Point, Point) {
	if p, ok := Intersection(s, o); ok {
		return 0, p, p
	}

	best := math.Inf(1)
	var onS, onO Point
	try := func(d float64, a, b Point) {
		if d < best {
			best, onS, onO = d, a, b
		}
	}

	for _, p := range []Point{s.A, s.B} {
		c := ClosestOnSegment(p, o)
		try(Euclidean(p, c), p, c)
	}
	for _, p := range []Point{o.A, o.B} {
		c := ClosestOnSegment(p, s)
		try(Euclidean(p, c), c, p)
	}
	return best, onS, onO
}

// CrossesInterior reports whether any part of s passes strictly through the interior of b.
// Segments that only run along or touch the boundary do not cross.
func CrossesInterior(s Segment, b Box) bool {
	// Liang-Barsky clipping against the box, then test the clipped midpoint.
	t0, t1 := 0.0, 1.0
	dx := s.B[0] - s.A[0]
	dy := s.B[1] - s.A[1]
	clip := func(p, q float64) bool {
		if math.Abs(p) <= Epsilon {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}
	if !clip(-dx, s.A[0]-b.Min[0]) || !clip(dx, b.Max[0]-s.A[0]) ||
		!clip(-dy, s.A[1]-b.Min[1]) || !clip(dy, b.Max[1]-s.A[1]) {
		return false
	}
	if t1-t0 <= Epsilon {
		return false
	}
	tm := (t0 + t1) / 2
	mid := Point{s.A[0] + tm*dx, s.A[1] + tm*dy}
	return InInterior(b, mid)
}

func cross(a, b, c Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(s Segment, p Point) bool {
	return p[0] >= math.Min(s.A[0], s.B[0])-Epsilon && p[0] <= math.Max(s.A[0], s.B[0])+Epsilon &&
		p[1] >= math.Min(s.A[1], s.B[1])-Epsilon && p[1] <= math.Max(s.A[1], s.B[1])+Epsilon
}
