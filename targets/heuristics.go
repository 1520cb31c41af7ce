// Package targets ranks candidate destinations for a connector.
package targets

import (
	"riserroute/core"
	"riserroute/geometry"
)

// Penalty pushes an infeasible candidate behind every feasible one without discarding it.
const Penalty = 1e6

// Situation is what a heuristic knows about one connector/target pairing.
type Situation struct {
	Connector      core.ConnectorInfo
	Target         core.RoutingTarget
	ConnectorWorld geometry.Vec3
	TargetWorld    geometry.Vec3
	// Topology is the Hanan-MST path cost from connector to target.
	Topology float64
}

// TargetHeuristic scores a candidate target; lower is better.
type TargetHeuristic interface {
	Name() string
	Score(s Situation) float64
}

// Gravity serves drains: the target must not sit above the fixture outlet.
type Gravity struct{}

func (Gravity) Name() string { return "gravity" }

func (Gravity) Score(s Situation) float64 {
	if s.TargetWorld.Z > s.ConnectorWorld.Z+geometry.Epsilon {
		return Penalty + s.Topology
	}
	return s.Topology
}

// Pressure serves pressurized and ducted systems where only run length matters.
type Pressure struct{}

func (Pressure) Name() string { return "pressure" }

func (Pressure) Score(s Situation) float64 {
	return s.Topology
}

// Electrical prefers targets reachable with a single bend.
type Electrical struct {
	// BendPenalty is added when connector and target share neither local axis.
	BendPenalty float64
}

func (Electrical) Name() string { return "electrical" }

func (e Electrical) Score(s Situation) float64 {
	if s.Connector.DomainID == s.Target.DomainID &&
		(geometry.Near(s.Connector.Position[0], s.Target.Position[0]) || geometry.Near(s.Connector.Position[1], s.Target.Position[1])) {
		return s.Topology
	}
	return s.Topology + e.BendPenalty
}

// LowVoltage serves data cabling, which has a maximum channel length.
type LowVoltage struct {
	MaxRun float64
}

func (LowVoltage) Name() string { return "lowvoltage" }

func (l LowVoltage) Score(s Situation) float64 {
	if l.MaxRun > 0 && s.Topology > l.MaxRun {
		return Penalty + s.Topology
	}
	return s.Topology
}

// DefaultTable maps every known system type to its heuristic.
func DefaultTable() map[core.SystemType]TargetHeuristic {
	gravity := Gravity{}
	pressure := Pressure{}
	electrical := Electrical{BendPenalty: 1}
	lowVoltage := LowVoltage{MaxRun: 295}

	return map[core.SystemType]TargetHeuristic{
		core.SanitaryDrain: gravity,
		core.StormDrain:    gravity,
		core.Vent:          pressure,
		core.DomesticHot:   pressure,
		core.DomesticCold:  pressure,
		core.FireSprinkler: pressure,
		core.HVACSupply:    pressure,
		core.HVACReturn:    pressure,
		core.Power:         electrical,
		core.Lighting:      electrical,
		core.Data:          lowVoltage,
	}
}
