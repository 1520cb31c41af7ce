package graph

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/spatial"
)

// WarningCode classifies a domain-level build problem.
type WarningCode string

const (
	WarnMalformedDomain WarningCode = "malformed_domain"
	WarnFullyObstructed WarningCode = "fully_obstructed"
	WarnNoTransition    WarningCode = "no_transition"
)

// Warning reports a domain that could not be fully built. It is data, never a crash.
type Warning struct {
	DomainID string      `json:"domain_id" yaml:"domain_id"`
	Code     WarningCode `json:"code" yaml:"code"`
	Message  string      `json:"message" yaml:"message"`
}

// Terminal is a connector or target position that must become a graph node.
type Terminal struct {
	DomainID string
	Pos      geometry.Point
}

// Options configures graph construction.
type Options struct {
	Resolution        map[core.DomainKind]float64
	DefaultResolution float64
	Multipliers       map[spatial.ObstacleKind]float64
	TransitionCost    float64
	Logger            *slog.Logger
}

// Builder lays regular grids over domains and joins them with transitions.
type Builder struct {
	opts Options
	log  *slog.Logger
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(opts Options) *Builder {
	if opts.DefaultResolution <= 0 {
		opts.DefaultResolution = 0.5
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{opts: opts, log: log}
}

// ResolutionFor returns the grid spacing for a domain kind.
func (b *Builder) ResolutionFor(kind core.DomainKind) float64 {
	if r, ok := b.opts.Resolution[kind]; ok && r > 0 {
		return r
	}
	return b.opts.DefaultResolution
}

// Build constructs the multi-domain graph. Malformed or fully obstructed domains become warnings.
// Duplicate domain ids and neighbor references to unknown domains are structural errors.
func (b *Builder) Build(domains []*spatial.RoutingDomain, terminals []Terminal) (*MultiDomainGraph, []Warning, error) {
	byID := make(map[string]*spatial.RoutingDomain, len(domains))
	for _, d := range domains {
		if _, dup := byID[d.ID]; dup {
			return nil, nil, fmt.Errorf("graph: domain %s: %w", d.ID, core.ErrDuplicateID)
		}
		byID[d.ID] = d
	}
	for _, d := range domains {
		for _, n := range d.Neighbors {
			if _, ok := byID[n]; !ok {
				return nil, nil, fmt.Errorf("graph: domain %s lists neighbor %s: %w", d.ID, n, core.ErrUnknownDomain)
			}
		}
	}

	perDomain := make(map[string][]geometry.Point)
	for _, t := range terminals {
		perDomain[t.DomainID] = append(perDomain[t.DomainID], t.Pos)
	}

	g := newGraph()
	var warnings []Warning
	for _, d := range domains {
		if err := d.Validate(); err != nil {
			warnings = append(warnings, Warning{DomainID: d.ID, Code: WarnMalformedDomain, Message: err.Error()})
			b.log.Warn("skipping malformed domain", slog.String("domain", d.ID), slog.Any("error", err))
			continue
		}
		g.domains[d.ID] = d
		if n := b.buildDomain(g, d, perDomain[d.ID]); n == 0 {
			warnings = append(warnings, Warning{
				DomainID: d.ID,
				Code:     WarnFullyObstructed,
				Message:  fmt.Sprintf("domain %s has no passable nodes", d.ID),
			})
			b.log.Warn("domain fully obstructed", slog.String("domain", d.ID))
		}
	}

	tg := TransitionGenerator{Cost: b.opts.TransitionCost, Resolution: b.ResolutionFor}
	warnings = append(warnings, tg.Connect(g)...)

	st := g.Stats()
	b.log.Debug("graph built",
		slog.Int("domains", st.Domains),
		slog.Int("nodes", st.Nodes),
		slog.Int("edges", st.Edges),
		slog.Int("transitions", st.Transitions),
		slog.Int("warnings", len(warnings)))
	return g, warnings, nil
}

// buildDomain adds one domain's grid and returns the number of grid nodes created.
func (b *Builder) buildDomain(g *MultiDomainGraph, d *spatial.RoutingDomain, terminals []geometry.Point) int {
	res := b.ResolutionFor(d.Kind)
	var tx, ty []float64
	for _, p := range terminals {
		tx = append(tx, p[0])
		ty = append(ty, p[1])
	}
	xs := gridLines(d.Bounds.Min[0], d.Bounds.Max[0], res, tx)
	ys := gridLines(d.Bounds.Min[1], d.Bounds.Max[1], res, ty)

	// Nodes strictly inside a non-penetrable obstacle are omitted.
	ids := make([][]NodeID, len(ys))
	created := 0
	for r, y := range ys {
		ids[r] = make([]NodeID, len(xs))
		for c, x := range xs {
			p := geometry.Pt(x, y)
			if d.Blocked(p) {
				ids[r][c] = -1
				continue
			}
			ids[r][c] = g.addNode(d.ID, p, c, r)
			created++
		}
	}

	for r := range ys {
		for c := range xs {
			a := ids[r][c]
			if a < 0 {
				continue
			}
			if c+1 < len(xs) && ids[r][c+1] >= 0 {
				b.link(g, d, a, ids[r][c+1])
			}
			if r+1 < len(ys) && ids[r+1][c] >= 0 {
				b.link(g, d, a, ids[r+1][c])
			}
		}
	}

	for _, p := range terminals {
		b.attachStub(g, d, p)
	}
	return created
}

// link adds a grid edge unless it passes through a non-penetrable obstacle.
func (b *Builder) link(g *MultiDomainGraph, d *spatial.RoutingDomain, a, c NodeID) {
	seg := geometry.Segment{A: g.Nodes[a].Pos, B: g.Nodes[c].Pos}
	mult := 1.0
	for _, o := range d.Obstacles {
		if !o.Crosses(seg) {
			continue
		}
		if !o.Penetrable {
			return
		}
		mult = math.Max(mult, o.Multiplier(b.opts.Multipliers))
	}
	l := seg.Length()
	g.addEdge(a, c, l, mult, l*mult, false)
}

// attachStub makes an off-grid terminal reachable through one stub edge to the nearest passable node.
// The stub is priced at its rectilinear length so the A* heuristic stays admissible.
func (b *Builder) attachStub(g *MultiDomainGraph, d *spatial.RoutingDomain, p geometry.Point) {
	if _, ok := g.NodeAt(d.ID, p); ok {
		return
	}
	near, ok := g.Nearest(d.ID, p)
	if !ok {
		return
	}
	stub := g.addNode(d.ID, p, -1, -1)
	q := g.Nodes[near].Pos
	g.addEdge(stub, near, geometry.Euclidean(p, q), 1, geometry.Manhattan(p, q), false)
	b.log.Debug("terminal attached by stub",
		slog.String("domain", d.ID),
		slog.Any("terminal", p),
		slog.Any("node", q))
}

// gridLines returns the sorted, de-duplicated grid coordinates covering [lo, hi] at step res,
// plus every extra coordinate that falls inside the range.
func gridLines(lo, hi, res float64, extra []float64) []float64 {
	var out []float64
	n := int(math.Floor((hi-lo)/res + geometry.Epsilon))
	for i := 0; i <= n; i++ {
		out = append(out, lo+float64(i)*res)
	}
	out = append(out, hi)
	for _, v := range extra {
		if v >= lo-geometry.Epsilon && v <= hi+geometry.Epsilon {
			out = append(out, v)
		}
	}
	sort.Float64s(out)

	lines := out[:0]
	for _, v := range out {
		if len(lines) > 0 && math.Abs(v-lines[len(lines)-1]) <= 1e-6 {
			continue
		}
		lines = append(lines, v)
	}
	return lines
}

