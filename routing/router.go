// Package routing implements obstacle-aware Hanan-sequential routing: connectors are taken one at a
// time in trade order, and each commits a conflict-free path or fails with a reason.
package routing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/graph"
	"riserroute/pathfinding"
	"riserroute/spatial"
	"riserroute/targets"
)

// DefaultConflictRetries is the number of blocked-node retries per candidate target.
const DefaultConflictRetries = 3

var routeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("riserroute/route"))

// RouteID returns the stable id of the route from a connector to a target.
func RouteID(connectorID, targetID string) string {
	return uuid.NewSHA1(routeNamespace, []byte(connectorID+"->"+targetID)).String()
}

// Options configures a Router.
type Options struct {
	// TradePriority orders connectors; nil means core.KnownSystemTypes.
	TradePriority    []core.SystemType
	Clearance        map[core.SystemType]float64
	DefaultClearance float64
	ConflictRetries  int
	// Domains restricts searches to a zone; nil allows every domain.
	Domains map[string]bool
	// Malformed lists domains dropped at build time, so their connectors fail with that reason.
	Malformed map[string]bool
	Zone      string
	Logger    *slog.Logger
}

// Router routes connectors over a shared graph and occupancy ledger.
// It owns target capacity: only Router commits decrement it.
type Router struct {
	graph   *graph.MultiDomainGraph
	occ     *spatial.OccupancyMap
	gen     *targets.Generator
	finder  pathfinding.Finder
	targets []*core.RoutingTarget
	opts    Options
	log     *slog.Logger
}

// New creates a router. A nil finder uses plain A*.
func New(g *graph.MultiDomainGraph, occ *spatial.OccupancyMap, gen *targets.Generator, finder pathfinding.Finder, tgts []*core.RoutingTarget, opts Options) *Router {
	if finder == nil {
		finder = pathfinding.AStar{}
	}
	if opts.TradePriority == nil {
		opts.TradePriority = core.KnownSystemTypes
	}
	if opts.ConflictRetries < 0 {
		opts.ConflictRetries = 0
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Zone != "" {
		log = log.With(slog.String("zone", opts.Zone))
	}

	var zoned []*core.RoutingTarget
	for _, t := range tgts {
		if opts.Domains == nil || opts.Domains[t.DomainID] {
			zoned = append(zoned, t)
		}
	}
	return &Router{graph: g, occ: occ, gen: gen, finder: finder, targets: zoned, opts: opts, log: log}
}

// Clearance returns the clearance configured for a trade.
func (r *Router) Clearance(s core.SystemType) float64 {
	if c, ok := r.opts.Clearance[s]; ok {
		return c
	}
	return r.opts.DefaultClearance
}

// pass collects the outcome of one Route call.
type pass struct {
	r   *Router
	res core.RoutingResult
}

func (p *pass) move(c core.ConnectorInfo, from, to core.ConnectorState, targetID string) {
	p.res.Transitions = append(p.res.Transitions, core.Transition{ConnectorID: c.ID, From: from, To: to, TargetID: targetID})
	p.r.log.Debug("connector state",
		slog.String("connector", c.ID),
		slog.String("state", string(to)),
		slog.String("target", targetID))
}

func (p *pass) fail(c core.ConnectorInfo, from core.ConnectorState, reason core.FailureReason, detail string) {
	p.move(c, from, core.StateFailed, "")
	p.res.Failed = append(p.res.Failed, core.FailedConnector{Connector: c, Reason: reason, Detail: detail})
	p.res.Stats.Failed++
	p.r.log.Debug("connector failed",
		slog.String("connector", c.ID),
		slog.String("reason", string(reason)),
		slog.String("detail", detail))
}

// Route sequences and routes the connectors in order. Connectors still pending when ctx ends
// fail with reason timeout. Committed routes are never rolled back.
func (r *Router) Route(ctx context.Context, conns []core.ConnectorInfo) core.RoutingResult {
	ordered := Sequence(conns, r.opts.TradePriority)

	p := &pass{r: r, res: core.RoutingResult{Zone: r.opts.Zone}}
	if len(ordered) > 0 {
		p.res.Trade = ordered[0].SystemType
	}
	for i, c := range ordered {
		if err := ctx.Err(); err != nil {
			for _, rest := range ordered[i:] {
				p.res.Stats.Attempted++
				p.fail(rest, core.StatePending, core.Timeout, err.Error())
			}
			break
		}
		p.res.Stats.Attempted++
		r.routeOne(p, c)
	}
	return p.res
}

func (r *Router) routeOne(p *pass, c core.ConnectorInfo) {
	if _, ok := r.graph.Domain(c.DomainID); !ok {
		if r.opts.Malformed[c.DomainID] {
			p.fail(c, core.StatePending, core.MalformedDomain, fmt.Sprintf("domain %s is malformed", c.DomainID))
		} else {
			p.fail(c, core.StatePending, core.UnknownDomain, fmt.Sprintf("domain %s not found", c.DomainID))
		}
		return
	}

	cands, reason := r.gen.Rank(c, r.targets)
	if reason != "" {
		p.fail(c, core.StatePending, reason, "")
		return
	}
	src, ok := r.graph.Nearest(c.DomainID, c.Position)
	if !ok {
		p.fail(c, core.StatePending, core.NoPathFound, fmt.Sprintf("domain %s has no passable nodes", c.DomainID))
		return
	}

	state := core.StatePending
	blockedSomewhere := false
	for _, cand := range cands {
		p.move(c, state, core.StateTargetSelected, cand.Target.ID)
		state = core.StateTargetSelected

		dst, ok := r.graph.Nearest(cand.Target.DomainID, cand.Target.Position)
		if !ok {
			continue
		}
		route, conflicted := r.attempt(p, c, cand, src, dst)
		if route == nil {
			blockedSomewhere = blockedSomewhere || conflicted
			continue
		}

		p.move(c, state, core.StatePathFound, cand.Target.ID)
		r.occ.Commit(*route, r.Clearance(c.SystemType))
		cand.Target.Capacity -= c.Demand()
		p.res.Routes = append(p.res.Routes, *route)
		p.res.Stats.Committed++
		p.move(c, core.StatePathFound, core.StateCommitted, cand.Target.ID)
		return
	}

	if blockedSomewhere {
		p.fail(c, state, core.AllCandidatesBlocked, fmt.Sprintf("%d candidate(s) blocked by occupancy", len(cands)))
		return
	}
	p.fail(c, state, core.NoPathFound, "")
}

// attempt searches for a conflict-free path to one candidate, blocking the nodes around
// conflicting reservations between retries. conflicted reports whether occupancy was the obstacle.
func (r *Router) attempt(p *pass, c core.ConnectorInfo, cand targets.Candidate, src, dst graph.NodeID) (*core.Route, bool) {
	id := RouteID(c.ID, cand.Target.ID)
	blocked := make(map[graph.NodeID]bool)
	conflicted := false

	for try := 0; try <= r.opts.ConflictRetries; try++ {
		path, ok := r.finder.FindPath(r.graph, src, dst, pathfinding.Options{Blocked: blocked, Domains: r.opts.Domains})
		p.res.Stats.Expansions += path.Expansions
		if !ok {
			return nil, conflicted
		}

		segs := pathfinding.Segments(r.graph, path)
		conflicts := r.check(c, cand, id, segs)
		if len(conflicts) == 0 {
			return &core.Route{
				ID:             id,
				ConnectorID:    c.ID,
				TargetID:       cand.Target.ID,
				SystemType:     c.SystemType,
				Diameter:       c.Diameter,
				Priority:       c.Priority,
				Segments:       segs,
				Cost:           path.Cost,
				TopologyLength: cand.Topology,
			}, false
		}

		conflicted = true
		if try == r.opts.ConflictRetries || r.block(conflicts, blocked) == 0 {
			break
		}
		p.res.Stats.Retries++
		r.log.Debug("rerouting around occupancy",
			slog.String("connector", c.ID),
			slog.String("target", cand.Target.ID),
			slog.Int("conflicts", len(conflicts)),
			slog.Int("blocked", len(blocked)))
	}
	return nil, conflicted
}

type domainConflict struct {
	domainID string
	spatial.Conflict
}

func (r *Router) check(c core.ConnectorInfo, cand targets.Candidate, routeID string, segs []core.RouteSegment) []domainConflict {
	var out []domainConflict
	for _, s := range segs {
		if s.Transition || s.Local().Orientation() == geometry.Degenerate {
			continue
		}
		q := spatial.Query{
			DomainID:  s.DomainID,
			Segment:   s.Local(),
			Diameter:  c.Diameter,
			Clearance: r.Clearance(c.SystemType),
			RouteID:   routeID,
			Trade:     c.SystemType,
			TargetID:  cand.Target.ID,
		}
		if cand.Target.DomainID == s.DomainID {
			join := cand.Target.Position
			q.Join = &join
		}
		for _, cf := range r.occ.Check(q) {
			out = append(out, domainConflict{domainID: s.DomainID, Conflict: cf})
		}
	}
	return out
}

// block adds every node lying within the required separation of a conflicting reservation
// and returns how many nodes were newly blocked.
func (r *Router) block(conflicts []domainConflict, blocked map[graph.NodeID]bool) int {
	added := 0
	for _, cf := range conflicts {
		for _, id := range r.graph.DomainNodes(cf.domainID) {
			if blocked[id] {
				continue
			}
			if geometry.PointSegmentDistance(r.graph.Nodes[id].Pos, cf.Existing.Segment) < cf.Required-geometry.Epsilon {
				blocked[id] = true
				added++
			}
		}
	}
	return added
}
