// Package hanan computes a rectilinear spanning topology over a terminal set: the Hanan grid of the
// terminals, its minimum spanning tree, and the tree pruned back to the terminals.
package hanan

import (
	"math"
	"sort"

	"riserroute/geometry"
	"riserroute/spatial"
)

// DefaultPenalty is the multiplier applied to edges crossing a non-penetrable obstacle.
const DefaultPenalty = 1000

// Options configures edge pricing.
type Options struct {
	Multipliers map[spatial.ObstacleKind]float64
	// NonPenetrablePenalty keeps the tree connected across solid obstacles at a steep price.
	NonPenetrablePenalty float64
}

// Edge connects two tree points.
type Edge struct {
	A, B   int
	Cost   float64
	Length float64 // rectilinear length
}

// Tree is a pruned spanning topology. Terminals[i] is the point index of input terminal i.
type Tree struct {
	Points    []geometry.Point
	Edges     []Edge
	Terminals []int
}

// Build returns the pruned Hanan-grid MST connecting every terminal.
func Build(terminals []geometry.Point, obstacles []spatial.Obstacle, opts Options) Tree {
	if opts.NonPenetrablePenalty <= 0 {
		opts.NonPenetrablePenalty = DefaultPenalty
	}
	if len(terminals) == 0 {
		return Tree{}
	}

	points, isTerminal := gridPoints(terminals, obstacles)
	edges := candidateEdges(points, obstacles, opts)
	tree := kruskal(len(points), edges)
	return prune(points, tree, isTerminal, terminals)
}

// gridPoints returns the Hanan grid intersections, minus those strictly inside a solid obstacle.
// Terminals are always kept.
func gridPoints(terminals []geometry.Point, obstacles []spatial.Obstacle) ([]geometry.Point, map[int]bool) {
	xs := distinct(terminals, 0)
	ys := distinct(terminals, 1)

	termAt := make(map[[2]float64]bool)
	for _, t := range terminals {
		termAt[[2]float64{t[0], t[1]}] = true
	}

	var points []geometry.Point
	isTerminal := make(map[int]bool)
	for _, x := range xs {
		for _, y := range ys {
			p := geometry.Pt(x, y)
			term := termAt[[2]float64{x, y}]
			if !term && blocked(p, obstacles) {
				continue
			}
			if term {
				isTerminal[len(points)] = true
			}
			points = append(points, p)
		}
	}
	return points, isTerminal
}

func distinct(pts []geometry.Point, axis int) []float64 {
	vals := make([]float64, 0, len(pts))
	for _, p := range pts {
		vals = append(vals, p[axis])
	}
	sort.Float64s(vals)
	out := vals[:0]
	for _, v := range vals {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func blocked(p geometry.Point, obstacles []spatial.Obstacle) bool {
	for _, o := range obstacles {
		if o.Blocks(p) {
			return true
		}
	}
	return false
}

// candidateEdges prices the complete graph over the grid points, sorted into Kruskal order:
// cost, then Euclidean length, then lexicographic endpoints.
func candidateEdges(points []geometry.Point, obstacles []spatial.Obstacle, opts Options) []Edge {
	type ranked struct {
		Edge
		euclid float64
	}
	var all []ranked
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			seg := geometry.Segment{A: points[i], B: points[j]}
			l := geometry.Manhattan(points[i], points[j])
			mult := 1.0
			for _, o := range obstacles {
				if !o.Crosses(seg) {
					continue
				}
				if o.Penetrable {
					mult = math.Max(mult, o.Multiplier(opts.Multipliers))
				} else {
					mult = math.Max(mult, opts.NonPenetrablePenalty)
				}
			}
			a, b := i, j
			if geometry.Less(points[j], points[i]) {
				a, b = j, i
			}
			all = append(all, ranked{Edge: Edge{A: a, B: b, Cost: l * mult, Length: l}, euclid: seg.Length()})
		}
	}

	sort.SliceStable(all, func(x, y int) bool {
		ex, ey := all[x], all[y]
		if ex.Cost != ey.Cost {
			return ex.Cost < ey.Cost
		}
		if ex.euclid != ey.euclid {
			return ex.euclid < ey.euclid
		}
		if c := geometry.Compare(points[ex.A], points[ey.A]); c != 0 {
			return c < 0
		}
		return geometry.Less(points[ex.B], points[ey.B])
	})

	edges := make([]Edge, len(all))
	for i, r := range all {
		edges[i] = r.Edge
	}
	return edges
}

func kruskal(n int, sorted []Edge) []Edge {
	uf := newUnionFind(n)
	tree := make([]Edge, 0, n-1)
	for _, e := range sorted {
		if len(tree) == n-1 {
			break
		}
		if uf.union(e.A, e.B) {
			tree = append(tree, e)
		}
	}
	return tree
}

// prune drops Steiner leaves until none remain, then merges Steiner points of degree 2 that lie
// on the straight line between their neighbors.
func prune(points []geometry.Point, edges []Edge, isTerminal map[int]bool, terminals []geometry.Point) Tree {
	adj := make(map[int]map[int]Edge, len(points))
	for i := range points {
		adj[i] = make(map[int]Edge)
	}
	link := func(e Edge) {
		adj[e.A][e.B] = e
		adj[e.B][e.A] = e
	}
	unlink := func(a, b int) {
		delete(adj[a], b)
		delete(adj[b], a)
	}
	for _, e := range edges {
		link(e)
	}

	removed := make(map[int]bool)
	for changed := true; changed; {
		changed = false
		for i := range points {
			if removed[i] || isTerminal[i] || len(adj[i]) > 1 {
				continue
			}
			for j := range adj[i] {
				unlink(i, j)
			}
			removed[i] = true
			changed = true
		}
	}

	for i := range points {
		if removed[i] || isTerminal[i] || len(adj[i]) != 2 {
			continue
		}
		var nb []int
		for j := range adj[i] {
			nb = append(nb, j)
		}
		a, b := nb[0], nb[1]
		if !geometry.Collinear(points[a], points[i], points[b]) || !between(points[a], points[i], points[b]) {
			continue
		}
		ea, eb := adj[i][a], adj[i][b]
		unlink(i, a)
		unlink(i, b)
		lo, hi := a, b
		if geometry.Less(points[b], points[a]) {
			lo, hi = b, a
		}
		link(Edge{A: lo, B: hi, Cost: ea.Cost + eb.Cost, Length: ea.Length + eb.Length})
		removed[i] = true
	}

	// Reindex the surviving points in their original order.
	index := make(map[int]int)
	var t Tree
	for i, p := range points {
		if removed[i] {
			continue
		}
		index[i] = len(t.Points)
		t.Points = append(t.Points, p)
	}
	for i := range points {
		if removed[i] {
			continue
		}
		for j, e := range adj[i] {
			if i < j {
				t.Edges = append(t.Edges, Edge{A: index[e.A], B: index[e.B], Cost: e.Cost, Length: e.Length})
			}
		}
	}
	sort.Slice(t.Edges, func(x, y int) bool {
		if t.Edges[x].A != t.Edges[y].A {
			return t.Edges[x].A < t.Edges[y].A
		}
		return t.Edges[x].B < t.Edges[y].B
	})

	byPos := make(map[[2]float64]int)
	for i, p := range t.Points {
		byPos[[2]float64{p[0], p[1]}] = i
	}
	for _, term := range terminals {
		t.Terminals = append(t.Terminals, byPos[[2]float64{term[0], term[1]}])
	}
	return t
}

// between reports whether p lies strictly between a and b on their common line.
func between(a, p, b geometry.Point) bool {
	return (a[0]-p[0])*(b[0]-p[0])+(a[1]-p[1])*(b[1]-p[1]) < 0
}
