// Package graph turns routing domains into weighted grid graphs joined by transition edges.
package graph

import (
	"math"
	"sort"

	"riserroute/geometry"
	"riserroute/spatial"
)

// NodeID indexes MultiDomainGraph.Nodes.
type NodeID int

// Node is one grid vertex of a domain.
type Node struct {
	ID       NodeID
	DomainID string
	Pos      geometry.Point
	Col, Row int // grid indices, -1 for stub nodes
	Stub     bool
}

// Edge is a directed half of an undirected graph edge.
type Edge struct {
	To         NodeID
	Cost       float64
	Length     float64
	Multiplier float64
	Transition bool
}

// Stats summarizes the size of a built graph.
type Stats struct {
	Domains     int `json:"domains" yaml:"domains"`
	Nodes       int `json:"nodes" yaml:"nodes"`
	Edges       int `json:"edges" yaml:"edges"`
	Transitions int `json:"transitions" yaml:"transitions"`
}

type nodeKey struct {
	domain string
	x, y   int64
}

func keyOf(domainID string, p geometry.Point) nodeKey {
	return nodeKey{domain: domainID, x: quantize(p[0]), y: quantize(p[1])}
}

func quantize(v float64) int64 {
	return int64(math.Round(v * 1e6))
}

// MultiDomainGraph holds the grid graphs of every domain plus the transitions between them.
// It is read-only once built; searches add blocked-node overlays without touching it.
type MultiDomainGraph struct {
	Nodes []Node
	Adj   [][]Edge

	domains  map[string]*spatial.RoutingDomain
	byDomain map[string][]NodeID
	index    map[nodeKey]NodeID
}

func newGraph() *MultiDomainGraph {
	return &MultiDomainGraph{
		domains:  make(map[string]*spatial.RoutingDomain),
		byDomain: make(map[string][]NodeID),
		index:    make(map[nodeKey]NodeID),
	}
}

func (g *MultiDomainGraph) addNode(domainID string, p geometry.Point, col, row int) NodeID {
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{ID: id, DomainID: domainID, Pos: p, Col: col, Row: row, Stub: col < 0})
	g.Adj = append(g.Adj, nil)
	g.byDomain[domainID] = append(g.byDomain[domainID], id)
	g.index[keyOf(domainID, p)] = id
	return id
}

func (g *MultiDomainGraph) addEdge(a, b NodeID, length, mult, cost float64, transition bool) {
	g.Adj[a] = append(g.Adj[a], Edge{To: b, Cost: cost, Length: length, Multiplier: mult, Transition: transition})
	g.Adj[b] = append(g.Adj[b], Edge{To: a, Cost: cost, Length: length, Multiplier: mult, Transition: transition})
}

// Len returns the number of nodes.
func (g *MultiDomainGraph) Len() int {
	return len(g.Nodes)
}

// Domain returns the domain with the given id.
func (g *MultiDomainGraph) Domain(id string) (*spatial.RoutingDomain, bool) {
	d, ok := g.domains[id]
	return d, ok
}

// DomainIDs returns the ids of every domain in the graph, sorted.
func (g *MultiDomainGraph) DomainIDs() []string {
	ids := make([]string, 0, len(g.domains))
	for id := range g.domains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DomainNodes returns the nodes of one domain in id order.
func (g *MultiDomainGraph) DomainNodes(domainID string) []NodeID {
	return g.byDomain[domainID]
}

// NodeAt returns the node at exactly p in the domain.
func (g *MultiDomainGraph) NodeAt(domainID string, p geometry.Point) (NodeID, bool) {
	id, ok := g.index[keyOf(domainID, p)]
	return id, ok
}

// Nearest returns the domain node closest to p, lowest id first on ties.
func (g *MultiDomainGraph) Nearest(domainID string, p geometry.Point) (NodeID, bool) {
	if id, ok := g.NodeAt(domainID, p); ok {
		return id, true
	}
	best := NodeID(-1)
	bestDist := math.Inf(1)
	for _, id := range g.byDomain[domainID] {
		d := geometry.Euclidean(g.Nodes[id].Pos, p)
		if d < bestDist-geometry.Epsilon {
			best, bestDist = id, d
		}
	}
	return best, best >= 0
}

// World returns the world position of a node.
func (g *MultiDomainGraph) World(id NodeID) geometry.Vec3 {
	n := g.Nodes[id]
	return g.domains[n.DomainID].World(n.Pos)
}

// EdgeBetween returns the edge from a to b.
func (g *MultiDomainGraph) EdgeBetween(a, b NodeID) (Edge, bool) {
	for _, e := range g.Adj[a] {
		if e.To == b {
			return e, true
		}
	}
	return Edge{}, false
}

// Stats counts nodes, undirected edges and transitions.
func (g *MultiDomainGraph) Stats() Stats {
	s := Stats{Domains: len(g.domains), Nodes: len(g.Nodes)}
	for _, adj := range g.Adj {
		for _, e := range adj {
			if e.Transition {
				s.Transitions++
			} else {
				s.Edges++
			}
		}
	}
	s.Edges /= 2
	s.Transitions /= 2
	return s
}
