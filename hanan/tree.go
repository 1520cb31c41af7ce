package hanan

import "math"

// Degree returns the number of tree edges at point i.
func (t Tree) Degree(i int) int {
	d := 0
	for _, e := range t.Edges {
		if e.A == i || e.B == i {
			d++
		}
	}
	return d
}

// Connected reports whether every point lies in a single component.
func (t Tree) Connected() bool {
	if len(t.Points) == 0 {
		return true
	}
	uf := newUnionFind(len(t.Points))
	components := len(t.Points)
	for _, e := range t.Edges {
		if uf.union(e.A, e.B) {
			components--
		}
	}
	return components == 1
}

// TotalCost sums the priced edge costs.
func (t Tree) TotalCost() float64 {
	total := 0.0
	for _, e := range t.Edges {
		total += e.Cost
	}
	return total
}

// TotalLength sums the rectilinear edge lengths.
func (t Tree) TotalLength() float64 {
	total := 0.0
	for _, e := range t.Edges {
		total += e.Length
	}
	return total
}

// PathCost returns the summed edge cost along the tree between input terminals i and j,
// or +Inf when either is out of range or they are not connected.
func (t Tree) PathCost(i, j int) float64 {
	return t.walk(i, j, func(e Edge) float64 { return e.Cost })
}

// PathLength returns the rectilinear length along the tree between input terminals i and j.
func (t Tree) PathLength(i, j int) float64 {
	return t.walk(i, j, func(e Edge) float64 { return e.Length })
}

func (t Tree) walk(i, j int, weight func(Edge) float64) float64 {
	if i < 0 || j < 0 || i >= len(t.Terminals) || j >= len(t.Terminals) {
		return math.Inf(1)
	}
	src, dst := t.Terminals[i], t.Terminals[j]
	if src == dst {
		return 0
	}

	adj := make([][]Edge, len(t.Points))
	for _, e := range t.Edges {
		adj[e.A] = append(adj[e.A], e)
		adj[e.B] = append(adj[e.B], e)
	}
	dist := make([]float64, len(t.Points))
	for k := range dist {
		dist[k] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst {
			return dist[cur]
		}
		for _, e := range adj[cur] {
			next := e.B
			if next == cur {
				next = e.A
			}
			if dist[next] >= 0 {
				continue
			}
			dist[next] = dist[cur] + weight(e)
			queue = append(queue, next)
		}
	}
	return math.Inf(1)
}
