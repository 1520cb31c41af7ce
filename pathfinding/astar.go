// Package pathfinding finds least-cost paths over a MultiDomainGraph.
package pathfinding

import (
	"container/heap"
	"math"

	"riserroute/geometry"
	"riserroute/graph"
)

// DefaultMaxExpansions bounds a single search.
const DefaultMaxExpansions = 200000

// Options restrict a single search without mutating the graph.
type Options struct {
	// Blocked nodes are never entered. The source and goal are exempt.
	Blocked map[graph.NodeID]bool
	// Domains limits the search to these domain ids; nil allows every domain.
	Domains map[string]bool
}

func (o Options) allows(g *graph.MultiDomainGraph, id, src, dst graph.NodeID) bool {
	if id == src || id == dst {
		return true
	}
	if o.Blocked[id] {
		return false
	}
	return o.Domains == nil || o.Domains[g.Nodes[id].DomainID]
}

// Path is a node sequence from source to goal.
type Path struct {
	Nodes      []graph.NodeID
	Cost       float64
	Length     float64
	Expansions int
}

// Finder finds a path between two nodes.
type Finder interface {
	FindPath(g *graph.MultiDomainGraph, src, dst graph.NodeID, opts Options) (Path, bool)
}

// searchNode represents a state in the search.
type searchNode struct {
	id     graph.NodeID
	g      float64
	f      float64
	seq    int // insertion order, breaks ties in f
	parent *searchNode
	index  int // index in the heap, -1 once popped
}

// nodeQueue is a min-heap on f, FIFO among equal f.
type nodeQueue []*searchNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*q = old[:n-1]
	return node
}

// AStar searches with a Manhattan heuristic in the goal's domain frame and zero elsewhere,
// which never overestimates because every edge costs at least its length.
type AStar struct {
	MaxExpansions int
}

// FindPath runs A* with the default expansion limit.
func FindPath(g *graph.MultiDomainGraph, src, dst graph.NodeID, opts Options) (Path, bool) {
	return AStar{}.FindPath(g, src, dst, opts)
}

// FindPath returns the least-cost path, or false when the goal is unreachable
// or the expansion limit is hit. An unreachable goal is not an error.
func (a AStar) FindPath(g *graph.MultiDomainGraph, src, dst graph.NodeID, opts Options) (Path, bool) {
	goal := g.Nodes[dst]
	h := func(id graph.NodeID) float64 {
		n := g.Nodes[id]
		if n.DomainID != goal.DomainID {
			return 0
		}
		return geometry.Manhattan(n.Pos, goal.Pos)
	}
	return search(g, src, dst, opts, h, a.limit())
}

func (a AStar) limit() int {
	if a.MaxExpansions > 0 {
		return a.MaxExpansions
	}
	return DefaultMaxExpansions
}

// Dijkstra is the uninformed reference search used to check A* results.
func Dijkstra(g *graph.MultiDomainGraph, src, dst graph.NodeID, opts Options) (Path, bool) {
	return search(g, src, dst, opts, func(graph.NodeID) float64 { return 0 }, math.MaxInt)
}

func search(g *graph.MultiDomainGraph, src, dst graph.NodeID, opts Options, h func(graph.NodeID) float64, limit int) (Path, bool) {
	if src == dst {
		return Path{Nodes: []graph.NodeID{src}}, true
	}

	open := &nodeQueue{}
	heap.Init(open)
	nodes := make(map[graph.NodeID]*searchNode)
	seq := 0

	start := &searchNode{id: src, f: h(src), seq: seq}
	heap.Push(open, start)
	nodes[src] = start

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if current.id == dst {
			p := reconstruct(g, current)
			p.Expansions = expanded
			return p, true
		}

		expanded++
		if expanded > limit {
			return Path{Expansions: expanded}, false
		}

		for _, e := range g.Adj[current.id] {
			if !opts.allows(g, e.To, src, dst) {
				continue
			}
			tentative := current.g + e.Cost

			// Nodes are reopened when a cheaper route appears, which keeps the search
			// optimal where transition edges make the heuristic inconsistent.
			existing, seen := nodes[e.To]
			if seen && tentative >= existing.g-geometry.Epsilon {
				continue
			}
			seq++
			if !seen {
				n := &searchNode{id: e.To, g: tentative, f: tentative + h(e.To), seq: seq, parent: current}
				nodes[e.To] = n
				heap.Push(open, n)
				continue
			}
			existing.g = tentative
			existing.f = tentative + h(e.To)
			existing.parent = current
			existing.seq = seq
			if existing.index >= 0 {
				heap.Fix(open, existing.index)
			} else {
				heap.Push(open, existing)
			}
		}
	}
	return Path{Expansions: expanded}, false
}

// reconstruct walks parent pointers back from the goal.
func reconstruct(g *graph.MultiDomainGraph, goal *searchNode) Path {
	var ids []graph.NodeID
	for n := goal; n != nil; n = n.parent {
		ids = append(ids, n.id)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	p := Path{Nodes: ids, Cost: goal.g}
	for i := 1; i < len(ids); i++ {
		if e, ok := g.EdgeBetween(ids[i-1], ids[i]); ok {
			p.Length += e.Length
		}
	}
	return p
}
