package geometry

// ConflictSpan returns the parameter range [t0, t1] along s whose points lie closer than r to o.
// Distance from a point moving along s to the convex segment o is convex in t, so the range is
// a single interval. ok is false when no point of s is closer than r.
func ConflictSpan(s, o Segment, r float64) (t0, t1 float64, ok bool) {
	at := func(t float64) Point {
		return Point{s.A[0] + t*(s.B[0]-s.A[0]), s.A[1] + t*(s.B[1]-s.A[1])}
	}
	f := func(t float64) float64 {
		return PointSegmentDistance(at(t), o)
	}

	lo, hi := 0.0, 1.0
	for i := 0; i < 80; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if f(m1) <= f(m2) {
			hi = m2
		} else {
			lo = m1
		}
	}
	tMin := (lo + hi) / 2
	// An exact intersection can fall between ternary probes.
	if p, hit := Intersection(s, o); hit {
		tMin = projectParam(s, p)
	}
	if f(tMin) >= r {
		return 0, 0, false
	}

	t0 = boundary(f, r, tMin, 0)
	t1 = boundary(f, r, tMin, 1)
	return t0, t1, true
}

// SubSegment returns the part of s between parameters t0 and t1.
func (s Segment) SubSegment(t0, t1 float64) Segment {
	dx := s.B[0] - s.A[0]
	dy := s.B[1] - s.A[1]
	return Segment{
		A: Point{s.A[0] + t0*dx, s.A[1] + t0*dy},
		B: Point{s.A[0] + t1*dx, s.A[1] + t1*dy},
	}
}

// boundary bisects between inside (f < r) and edge for the last parameter still inside.
func boundary(f func(float64) float64, r, inside, edge float64) float64 {
	if f(edge) < r {
		return edge
	}
	outside := edge
	for i := 0; i < 60; i++ {
		mid := (inside + outside) / 2
		if f(mid) < r {
			inside = mid
		} else {
			outside = mid
		}
	}
	return inside
}

func projectParam(s Segment, p Point) float64 {
	dx := s.B[0] - s.A[0]
	dy := s.B[1] - s.A[1]
	l2 := dx*dx + dy*dy
	if l2 <= Epsilon {
		return 0
	}
	t := ((p[0]-s.A[0])*dx + (p[1]-s.A[1])*dy) / l2
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
