package pathfinding

import (
	"riserroute/core"
	"riserroute/geometry"
	"riserroute/graph"
)

// Segments converts a node path into straight route segments. Consecutive collinear steps in one
// domain merge into a single segment; each domain change becomes a transition segment.
func Segments(g *graph.MultiDomainGraph, p Path) []core.RouteSegment {
	if len(p.Nodes) < 2 {
		return nil
	}

	var out []core.RouteSegment
	runStart := 0
	runCost := 0.0

	flush := func(end int) {
		if end == runStart {
			return
		}
		a, b := g.Nodes[p.Nodes[runStart]], g.Nodes[p.Nodes[end]]
		out = append(out, core.RouteSegment{
			DomainID:   a.DomainID,
			Start:      a.Pos,
			End:        b.Pos,
			StartWorld: g.World(a.ID),
			EndWorld:   g.World(b.ID),
			Cost:       runCost,
		})
	}

	for i := 1; i < len(p.Nodes); i++ {
		prev, cur := g.Nodes[p.Nodes[i-1]], g.Nodes[p.Nodes[i]]
		e, _ := g.EdgeBetween(prev.ID, cur.ID)

		if e.Transition || prev.DomainID != cur.DomainID {
			flush(i - 1)
			out = append(out, core.RouteSegment{
				DomainID:   prev.DomainID,
				ToDomainID: cur.DomainID,
				Start:      prev.Pos,
				End:        cur.Pos,
				StartWorld: g.World(prev.ID),
				EndWorld:   g.World(cur.ID),
				Cost:       e.Cost,
				Transition: true,
			})
			runStart, runCost = i, 0
			continue
		}

		// A run continues while the next step stays on the line through the run's start.
		if i-runStart >= 2 {
			first := g.Nodes[p.Nodes[runStart]].Pos
			if !geometry.Collinear(first, prev.Pos, cur.Pos) || !sameDirection(first, prev.Pos, cur.Pos) {
				flush(i - 1)
				runStart, runCost = i-1, 0
			}
		}
		runCost += e.Cost
	}
	flush(len(p.Nodes) - 1)
	return out
}

// sameDirection reports whether b->c continues the heading of a->b rather than doubling back.
func sameDirection(a, b, c geometry.Point) bool {
	return (b[0]-a[0])*(c[0]-b[0])+(b[1]-a[1])*(c[1]-b[1]) > 0
}
