package routing

import (
	"sort"

	"riserroute/core"
	"riserroute/geometry"
)

// TradeRank returns the position of each trade in the priority table. Unlisted trades rank last.
func TradeRank(priority []core.SystemType) func(core.SystemType) int {
	rank := make(map[core.SystemType]int, len(priority))
	for i, s := range priority {
		if _, dup := rank[s]; !dup {
			rank[s] = i
		}
	}
	return func(s core.SystemType) int {
		if r, ok := rank[s]; ok {
			return r
		}
		return len(priority)
	}
}

// Sequence orders connectors by trade priority, then connector priority, then domain, and within
// each such group chains nearest neighbors so connectors close to each other route back to back.
func Sequence(conns []core.ConnectorInfo, priority []core.SystemType) []core.ConnectorInfo {
	rank := TradeRank(priority)
	sorted := append([]core.ConnectorInfo(nil), conns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ra, rb := rank(a.SystemType), rank(b.SystemType); ra != rb {
			return ra < rb
		}
		if a.SystemType != b.SystemType {
			return a.SystemType < b.SystemType
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.DomainID < b.DomainID
	})

	out := make([]core.ConnectorInfo, 0, len(sorted))
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sameGroup(sorted[start], sorted[end]) {
			end++
		}
		out = append(out, localityOrder(sorted[start:end])...)
		start = end
	}
	return out
}

func sameGroup(a, b core.ConnectorInfo) bool {
	return a.SystemType == b.SystemType && a.Priority == b.Priority && a.DomainID == b.DomainID
}

// localityOrder chains the group greedily: it starts at the lowest position and always moves
// to the nearest unvisited connector by Manhattan distance. Equal distances go to the lower
// position, then the lower id. O(n²) in the group size.
func localityOrder(group []core.ConnectorInfo) []core.ConnectorInfo {
	rest := append([]core.ConnectorInfo(nil), group...)
	sort.SliceStable(rest, func(i, j int) bool {
		if c := geometry.Compare(rest[i].Position, rest[j].Position); c != 0 {
			return c < 0
		}
		return rest[i].ID < rest[j].ID
	})
	if len(rest) < 3 {
		return rest
	}

	out := make([]core.ConnectorInfo, 0, len(rest))
	cur := rest[0]
	out = append(out, cur)
	rest = rest[1:]
	for len(rest) > 0 {
		best, bestDist := 0, geometry.Manhattan(cur.Position, rest[0].Position)
		for i := 1; i < len(rest); i++ {
			// rest stays in position order, so the first of equal distances wins
			if d := geometry.Manhattan(cur.Position, rest[i].Position); d < bestDist-geometry.Epsilon {
				best, bestDist = i, d
			}
		}
		cur = rest[best]
		out = append(out, cur)
		rest = append(rest[:best], rest[best+1:]...)
	}
	return out
}
