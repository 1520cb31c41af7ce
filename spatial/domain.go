// Package spatial models the routing substrate: planar domains, the obstacles inside them,
// and the occupancy ledger of reserved route segments.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"riserroute/core"
	"riserroute/geometry"
)

// ErrInvalidTransform is returned when a domain's local-to-world transform is not orthonormal.
var ErrInvalidTransform = errors.New("spatial: invalid transform")

const transformTolerance = 1e-6

// ObstacleKind names the structural member an obstacle represents.
type ObstacleKind string

const (
	Stud      ObstacleKind = "stud"
	Joist     ObstacleKind = "joist"
	Plate     ObstacleKind = "plate"
	Blocking  ObstacleKind = "blocking"
	FireRated ObstacleKind = "fire_rated"
	Generic   ObstacleKind = "generic"
)

// Obstacle is a blocking or cost-inflating region of a domain. Obstacles are immutable once loaded.
type Obstacle struct {
	ID             string
	Kind           ObstacleKind
	Bounds         geometry.Box
	Penetrable     bool
	CostMultiplier float64 // 0 means the configured default for Kind
}

// Blocks reports whether p lies strictly inside a non-penetrable obstacle.
func (o Obstacle) Blocks(p geometry.Point) bool {
	return !o.Penetrable && geometry.InInterior(o.Bounds, p)
}

// Crosses reports whether the segment passes through the obstacle's interior.
func (o Obstacle) Crosses(s geometry.Segment) bool {
	return geometry.CrossesInterior(s, o.Bounds)
}

// Multiplier returns the traversal-cost multiplier, falling back to the per-kind defaults.
func (o Obstacle) Multiplier(defaults map[ObstacleKind]float64) float64 {
	if o.CostMultiplier > 0 {
		return o.CostMultiplier
	}
	if m, ok := defaults[o.Kind]; ok && m > 0 {
		return m
	}
	if m, ok := defaults[Generic]; ok && m > 0 {
		return m
	}
	return 1
}

// Transform maps domain-local 2D coordinates to world space: world = Origin + x*U + y*V.
type Transform struct {
	Origin geometry.Vec3
	U, V   geometry.Vec3
}

// IdentityFloor returns the transform of a horizontal surface at elevation z.
func IdentityFloor(z float64) Transform {
	return Transform{Origin: geometry.Vec3{Z: z}, U: geometry.Vec3{X: 1}, V: geometry.Vec3{Y: 1}}
}

// WallAlongX returns the transform of an upright surface running along world X at world y.
func WallAlongX(origin geometry.Vec3) Transform {
	return Transform{Origin: origin, U: geometry.Vec3{X: 1}, V: geometry.Vec3{Z: 1}}
}

// Validate checks that both axes are unit length and orthogonal.
func (t Transform) Validate() error {
	if math.Abs(t.U.Length()-1) > transformTolerance {
		return fmt.Errorf("%w: U axis length %.6f", ErrInvalidTransform, t.U.Length())
	}
	if math.Abs(t.V.Length()-1) > transformTolerance {
		return fmt.Errorf("%w: V axis length %.6f", ErrInvalidTransform, t.V.Length())
	}
	if math.Abs(t.U.Dot(t.V)) > transformTolerance {
		return fmt.Errorf("%w: axes not orthogonal", ErrInvalidTransform)
	}
	return nil
}

// World maps a local point to world space.
func (t Transform) World(p geometry.Point) geometry.Vec3 {
	return t.Origin.Add(t.U.Scale(p[0])).Add(t.V.Scale(p[1]))
}

// Local projects a world position onto the domain plane.
func (t Transform) Local(w geometry.Vec3) geometry.Point {
	d := w.Sub(t.Origin)
	return geometry.Point{d.Dot(t.U), d.Dot(t.V)}
}

// Rise returns the world elevation change of a local displacement.
func (t Transform) Rise(dx, dy float64) float64 {
	return t.U.Z*dx + t.V.Z*dy
}

// RoutingDomain is a planar routing surface. It is never mutated after construction.
type RoutingDomain struct {
	ID        string
	Kind      core.DomainKind
	Level     int
	Bounds    geometry.Box
	Depth     float64 // cavity or plenum thickness
	Obstacles []Obstacle
	Neighbors []string
	Transform Transform
}

// Validate reports a malformed domain.
func (d *RoutingDomain) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", core.ErrMalformedDomain)
	}
	if d.Bounds.Max[0]-d.Bounds.Min[0] <= geometry.Epsilon || d.Bounds.Max[1]-d.Bounds.Min[1] <= geometry.Epsilon {
		return fmt.Errorf("%w: domain %s has empty bounds", core.ErrMalformedDomain, d.ID)
	}
	if err := d.Transform.Validate(); err != nil {
		return fmt.Errorf("%w: domain %s: %v", core.ErrMalformedDomain, d.ID, err)
	}
	return nil
}

// Contains reports whether p lies within the domain bounds, boundary included.
func (d *RoutingDomain) Contains(p geometry.Point) bool {
	return d.Bounds.Contains(p)
}

// Blocked reports whether p lies inside any non-penetrable obstacle.
func (d *RoutingDomain) Blocked(p geometry.Point) bool {
	for _, o := range d.Obstacles {
		if o.Blocks(p) {
			return true
		}
	}
	return false
}

// SegmentClear reports whether s stays inside the domain without entering a non-penetrable obstacle.
func (d *RoutingDomain) SegmentClear(s geometry.Segment) bool {
	if !d.Contains(s.A) || !d.Contains(s.B) {
		return false
	}
	for _, o := range d.Obstacles {
		if !o.Penetrable && o.Crosses(s) {
			return false
		}
	}
	return true
}

// Vertical reports whether the domain plane contains the world up axis.
func (d *RoutingDomain) Vertical() bool {
	u, v := d.Transform.U, d.Transform.V
	nz := u.X*v.Y - u.Y*v.X
	return math.Abs(nz) <= transformTolerance
}

// World maps a local point to world space.
func (d *RoutingDomain) World(p geometry.Point) geometry.Vec3 {
	return d.Transform.World(p)
}

// AvailableDrop returns how far a pipe of the given diameter at p can descend before leaving the domain.
func (d *RoutingDomain) AvailableDrop(p geometry.Point, diameter float64) float64 {
	if d.Vertical() {
		up := math.Abs(d.Transform.V.Z)
		if up <= transformTolerance {
			up = math.Abs(d.Transform.U.Z)
			return (p[0]-d.Bounds.Min[0])*up - diameter/2
		}
		return (p[1]-d.Bounds.Min[1])*up - diameter/2
	}
	return d.Depth - diameter
}
