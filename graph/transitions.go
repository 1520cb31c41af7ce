package graph

import (
	"fmt"
	"math"

	"riserroute/core"
	"riserroute/geometry"
)

// TransitionGenerator joins neighboring domains at nodes that coincide in world space.
type TransitionGenerator struct {
	// Cost is the fixed overhead of crossing from one domain into another.
	Cost float64
	// Resolution gives the grid spacing of a domain kind; nodes closer than half
	// the finer spacing of the two domains are treated as coincident.
	Resolution func(core.DomainKind) float64
}

type cell struct{ x, y, z int64 }

// Connect adds transition edges for every declared neighbor pair and returns
// a no_transition warning for pairs that share no coincident nodes.
func (t TransitionGenerator) Connect(g *MultiDomainGraph) []Warning {
	var warnings []Warning
	seen := make(map[[2]string]bool)

	for _, id := range g.DomainIDs() {
		d := g.domains[id]
		for _, nid := range d.Neighbors {
			pair := [2]string{id, nid}
			if nid < id {
				pair = [2]string{nid, id}
			}
			if seen[pair] || nid == id {
				continue
			}
			seen[pair] = true

			n, ok := g.domains[nid]
			if !ok {
				// The neighbor was dropped as malformed; its own warning covers it.
				continue
			}
			tol := math.Min(t.Resolution(d.Kind), t.Resolution(n.Kind)) / 2
			if added := t.join(g, pair[0], pair[1], tol); added == 0 {
				warnings = append(warnings, Warning{
					DomainID: pair[0],
					Code:     WarnNoTransition,
					Message:  fmt.Sprintf("domains %s and %s share no coincident boundary nodes", pair[0], pair[1]),
				})
			}
		}
	}
	return warnings
}

// join links each node of domain a to the nearest node of domain b lying within tol in world space.
func (t TransitionGenerator) join(g *MultiDomainGraph, a, b string, tol float64) int {
	if tol <= 0 {
		return 0
	}
	buckets := make(map[cell][]NodeID)
	at := func(w geometry.Vec3) cell {
		return cell{int64(math.Floor(w.X / tol)), int64(math.Floor(w.Y / tol)), int64(math.Floor(w.Z / tol))}
	}
	for _, id := range g.byDomain[b] {
		c := at(g.World(id))
		buckets[c] = append(buckets[c], id)
	}

	added := 0
	for _, src := range g.byDomain[a] {
		w := g.World(src)
		c := at(w)
		best := NodeID(-1)
		bestDist := tol
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, dst := range buckets[cell{c.x + dx, c.y + dy, c.z + dz}] {
						dist := w.Distance(g.World(dst))
						if dist < bestDist-geometry.Epsilon || (best >= 0 && geometry.Near(dist, bestDist) && dst < best) {
							best, bestDist = dst, dist
						}
					}
				}
			}
		}
		if best < 0 {
			continue
		}
		g.addEdge(src, best, bestDist, 1, t.Cost+bestDist, true)
		added++
	}
	return added
}
