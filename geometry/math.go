// Package geometry provides the planar and world-space primitives shared by the routing packages.
// Planar points and boxes are orb types so that other geometry tooling can consume them directly.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Epsilon is the tolerance used for coordinate comparisons, in feet.
const Epsilon = 1e-9

// Point is a 2D position in a domain-local frame.
type Point = orb.Point

// Box is an axis-aligned rectangle in a domain-local frame.
type Box = orb.Bound

// Pt is shorthand for constructing a Point.
func Pt(x, y float64) Point {
	return Point{x, y}
}

// NewBox returns the box spanning the two corners in any order.
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{
		Min: Point{math.Min(x1, x2), math.Min(y1, y2)},
		Max: Point{math.Max(x1, x2), math.Max(y1, y2)},
	}
}

// Near reports whether a and b differ by at most Epsilon.
func Near(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// SamePoint reports whether two points coincide within Epsilon.
func SamePoint(a, b Point) bool {
	return Near(a[0], b[0]) && Near(a[1], b[1])
}

// Manhattan returns the rectilinear distance between two points.
func Manhattan(a, b Point) float64 {
	return math.Abs(a[0]-b[0]) + math.Abs(a[1]-b[1])
}

// Euclidean returns the straight-line distance between two points.
func Euclidean(a, b Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// Less orders points lexicographically by X then Y.
func Less(a, b Point) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// Compare returns -1, 0 or 1 following the Less ordering.
func Compare(a, b Point) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// Collinear checks if three points lie on one straight line.
func Collinear(p1, p2, p3 Point) bool {
	cross := (p2[0]-p1[0])*(p3[1]-p1[1]) - (p2[1]-p1[1])*(p3[0]-p1[0])
	return math.Abs(cross) <= 1e-7
}

// InInterior reports whether p lies strictly inside b. Points on the boundary are outside.
func InInterior(b Box, p Point) bool {
	return p[0] > b.Min[0]+Epsilon && p[0] < b.Max[0]-Epsilon &&
		p[1] > b.Min[1]+Epsilon && p[1] < b.Max[1]-Epsilon
}

// Snap rounds v to the nearest multiple of step measured from origin.
func Snap(v, origin, step float64) float64 {
	if step <= 0 {
		return v
	}
	return origin + math.Round((v-origin)/step)*step
}
