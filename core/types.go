// Package core contains the records shared by every stage of the routing solver.
package core

import (
	"math"

	"riserroute/geometry"
)

// SystemType identifies a building service trade.
type SystemType string

const (
	SanitaryDrain SystemType = "sanitary_drain"
	StormDrain    SystemType = "storm_drain"
	Vent          SystemType = "vent"
	DomesticHot   SystemType = "domestic_hot"
	DomesticCold  SystemType = "domestic_cold"
	FireSprinkler SystemType = "fire_sprinkler"
	HVACSupply    SystemType = "hvac_supply"
	HVACReturn    SystemType = "hvac_return"
	Power         SystemType = "power"
	Lighting      SystemType = "lighting"
	Data          SystemType = "data"
)

// KnownSystemTypes lists every trade the solver understands, in default priority order.
var KnownSystemTypes = []SystemType{
	SanitaryDrain, StormDrain, Vent,
	DomesticHot, DomesticCold, FireSprinkler,
	HVACSupply, HVACReturn,
	Power, Lighting, Data,
}

// IsGravity reports whether the system drains by gravity and needs slope.
func (s SystemType) IsGravity() bool {
	return s == SanitaryDrain || s == StormDrain
}

// Discipline returns the broad trade family of a system type.
func (s SystemType) Discipline() string {
	switch s {
	case SanitaryDrain, StormDrain, Vent, DomesticHot, DomesticCold, FireSprinkler:
		return "plumbing"
	case HVACSupply, HVACReturn:
		return "hvac"
	case Power, Lighting, Data:
		return "electrical"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the known system types.
func (s SystemType) Valid() bool {
	for _, k := range KnownSystemTypes {
		if k == s {
			return true
		}
	}
	return false
}

// DomainKind identifies the kind of planar routing surface.
type DomainKind string

const (
	KindWall    DomainKind = "wall"
	KindFloor   DomainKind = "floor"
	KindCeiling DomainKind = "ceiling"
	KindShaft   DomainKind = "shaft"
)

// Vertical reports whether surfaces of this kind stand upright by default.
func (k DomainKind) Vertical() bool {
	return k == KindWall || k == KindShaft
}

// ConnectorInfo is a fixture or device terminal that needs one route.
type ConnectorInfo struct {
	ID         string
	SystemType SystemType
	Location   geometry.Vec3  // world position
	DomainID   string
	Position   geometry.Point // domain-local position
	Diameter   float64
	Priority   int
	Load       float64 // capacity units consumed at the target, 0 means 1
}

// Demand returns the capacity the connector consumes at its target.
func (c ConnectorInfo) Demand() float64 {
	if c.Load <= 0 {
		return 1
	}
	return c.Load
}

// RoutingTarget is a destination such as a riser or convergence point.
type RoutingTarget struct {
	ID       string
	DomainID string
	Position geometry.Point
	Systems  []SystemType
	Capacity float64 // remaining load units; UnlimitedCapacity when unbounded
	Priority int     // lower values are preferred
}

// UnlimitedCapacity marks a target that accepts any number of connections.
var UnlimitedCapacity = math.Inf(1)

// Accepts reports whether the target serves the given system type.
func (t RoutingTarget) Accepts(s SystemType) bool {
	for _, sys := range t.Systems {
		if sys == s {
			return true
		}
	}
	return false
}

// HasCapacity reports whether the target can absorb the given demand.
func (t RoutingTarget) HasCapacity(demand float64) bool {
	return t.Capacity >= demand-1e-9
}

// RouteSegment is one straight run of a route within a domain, or a transition between domains.
type RouteSegment struct {
	DomainID   string
	ToDomainID string // set on transitions
	Start, End geometry.Point
	StartWorld geometry.Vec3
	EndWorld   geometry.Vec3
	Cost       float64
	Transition bool
	Slope      float64 // set by sanitary post-processing
}

// Local returns the segment in its domain-local frame.
func (s RouteSegment) Local() geometry.Segment {
	return geometry.Segment{A: s.Start, B: s.End}
}

// Length returns the world length of the segment.
func (s RouteSegment) Length() float64 {
	return s.StartWorld.Distance(s.EndWorld)
}

// Orientation returns the local orientation of the segment.
func (s RouteSegment) Orientation() geometry.Orientation {
	return s.Local().Orientation()
}

// Route is a committed connector-to-target path.
type Route struct {
	ID             string
	ConnectorID    string
	TargetID       string
	SystemType     SystemType
	Diameter       float64
	Priority       int
	Segments       []RouteSegment
	Cost           float64
	TopologyLength float64 // Hanan-MST estimate used to rank the target
}

// Length returns the total world length of the route.
func (r Route) Length() float64 {
	total := 0.0
	for _, s := range r.Segments {
		total += s.Length()
	}
	return total
}

// Vertices returns the world polyline of the route.
func (r Route) Vertices() []geometry.Vec3 {
	if len(r.Segments) == 0 {
		return nil
	}
	out := make([]geometry.Vec3, 0, len(r.Segments)+1)
	out = append(out, r.Segments[0].StartWorld)
	for _, s := range r.Segments {
		out = append(out, s.EndWorld)
	}
	return out
}

// Domains returns the ids of the domains the route passes through, in order of first use.
func (r Route) Domains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.Segments {
		if s.Transition {
			continue
		}
		if !seen[s.DomainID] {
			seen[s.DomainID] = true
			out = append(out, s.DomainID)
		}
	}
	return out
}

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	c := r
	c.Segments = append([]RouteSegment(nil), r.Segments...)
	return c
}
