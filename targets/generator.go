package targets

import (
	"sort"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/hanan"
	"riserroute/spatial"
)

// DefaultMaxCandidates bounds the ranked list handed to the router.
const DefaultMaxCandidates = 5

// Candidate is a ranked target for one connector.
type Candidate struct {
	Target *core.RoutingTarget
	Score  float64
	// Topology is the Hanan-MST path length from the connector to the target.
	Topology float64
}

// Generator ranks targets with the heuristic registered for the connector's system type.
type Generator struct {
	Table         map[core.SystemType]TargetHeuristic
	Domains       map[string]*spatial.RoutingDomain
	Hanan         hanan.Options
	MaxCandidates int
}

// NewGenerator creates a generator over the given domains with the default heuristic table.
func NewGenerator(domains map[string]*spatial.RoutingDomain, hopts hanan.Options, maxCandidates int) *Generator {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Generator{
		Table:         DefaultTable(),
		Domains:       domains,
		Hanan:         hopts,
		MaxCandidates: maxCandidates,
	}
}

type eligible struct {
	target *core.RoutingTarget
	world  geometry.Vec3
	local  geometry.Point // projected into the connector's domain frame
	offset float64        // distance from the connector's plane
}

// Rank returns the best candidates for conn, best first, or the reason none exist.
// Targets are filtered by system type and remaining capacity, then scored on the obstacle-priced
// Hanan-MST between the connector and each target projected into the connector's domain.
func (g *Generator) Rank(conn core.ConnectorInfo, targets []*core.RoutingTarget) ([]Candidate, core.FailureReason) {
	home, ok := g.Domains[conn.DomainID]
	if !ok {
		return nil, core.UnknownDomain
	}
	heuristic, ok := g.Table[conn.SystemType]
	if !ok {
		heuristic = Pressure{}
	}

	origin := home.World(conn.Position)
	compatible := 0
	var pool []eligible
	for _, t := range targets {
		if !t.Accepts(conn.SystemType) {
			continue
		}
		d, ok := g.Domains[t.DomainID]
		if !ok {
			continue
		}
		compatible++
		if !t.HasCapacity(conn.Demand()) {
			continue
		}
		w := d.World(t.Position)
		local := home.Transform.Local(w)
		pool = append(pool, eligible{
			target: t,
			world:  w,
			local:  local,
			offset: w.Distance(home.World(local)),
		})
	}
	switch {
	case compatible == 0:
		return nil, core.NoTargetAvailable
	case len(pool) == 0:
		return nil, core.CapacityExceeded
	}

	out := make([]Candidate, 0, len(pool))
	for _, e := range pool {
		tree := hanan.Build([]geometry.Point{conn.Position, e.local}, home.Obstacles, g.Hanan)
		out = append(out, Candidate{
			Target:   e.target,
			Topology: tree.PathLength(0, 1) + e.offset,
			Score: heuristic.Score(Situation{
				Connector:      conn,
				Target:         *e.target,
				ConnectorWorld: origin,
				TargetWorld:    e.world,
				Topology:       tree.PathCost(0, 1) + e.offset,
			}),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Target.Priority != b.Target.Priority {
			return a.Target.Priority < b.Target.Priority
		}
		return a.Target.ID < b.Target.ID
	})
	if len(out) > g.MaxCandidates {
		out = out[:g.MaxCandidates]
	}
	return out, ""
}
