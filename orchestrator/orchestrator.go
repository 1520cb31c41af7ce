// Package orchestrator runs the router trade by trade across zones over one shared occupancy ledger.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"riserroute/core"
	"riserroute/graph"
	"riserroute/hanan"
	"riserroute/pathfinding"
	"riserroute/routing"
	"riserroute/spatial"
	"riserroute/targets"
)

// Options configures a run.
type Options struct {
	Graph            graph.Options
	Hanan            hanan.Options
	TradePriority    []core.SystemType
	Clearance        map[core.SystemType]float64
	DefaultClearance float64
	Exemptions       spatial.Exemptions
	ConflictRetries  int
	MaxCandidates    int
	MaxExpansions    int
	CacheSize        int
	// Parallel routes the zones of one trade concurrently on disjoint occupancy partitions.
	Parallel bool
	Timeout  time.Duration
	Zones    ZoneStrategy
	Logger   *slog.Logger
}

// Input is one planning problem. Targets are copied; the caller's capacities are never touched.
type Input struct {
	Domains    []*spatial.RoutingDomain
	Connectors []core.ConnectorInfo
	Targets    []core.RoutingTarget
	// Prior routes from an earlier run are reserved first and their connectors skipped.
	Prior []core.Route
}

// Orchestrator plans every connector of an input.
type Orchestrator struct {
	opts Options
	log  *slog.Logger
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.TradePriority == nil {
		opts.TradePriority = core.KnownSystemTypes
	}
	if opts.Zones == nil {
		opts.Zones = ByLevel{}
	}
	if opts.Hanan.Multipliers == nil {
		opts.Hanan.Multipliers = opts.Graph.Multipliers
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts.Graph.Logger = log
	return &Orchestrator{opts: opts, log: log}
}

// plan holds the state shared by the passes of one run.
type plan struct {
	graph     *graph.MultiDomainGraph
	occ       *spatial.OccupancyMap
	gen       *targets.Generator
	finder    *pathfinding.CachedFinder
	targets   []*core.RoutingTarget
	malformed map[string]bool
}

// Run builds the graph and routes every connector. Only structurally invalid input is an error;
// connectors that cannot be routed are reported in the result.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*OrchestrationResult, error) {
	start := time.Now()
	if err := checkIDs(in); err != nil {
		return nil, err
	}

	var terms []graph.Terminal
	for _, c := range in.Connectors {
		terms = append(terms, graph.Terminal{DomainID: c.DomainID, Pos: c.Position})
	}
	for _, t := range in.Targets {
		terms = append(terms, graph.Terminal{DomainID: t.DomainID, Pos: t.Position})
	}
	g, warnings, err := graph.NewBuilder(o.opts.Graph).Build(in.Domains, terms)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	p := &plan{
		graph:     g,
		occ:       spatial.NewOccupancyMap(o.opts.Exemptions),
		finder:    pathfinding.NewCachedFinder(pathfinding.AStar{MaxExpansions: o.opts.MaxExpansions}, o.opts.CacheSize),
		malformed: make(map[string]bool),
	}
	for _, w := range warnings {
		if w.Code == graph.WarnMalformedDomain {
			p.malformed[w.DomainID] = true
		}
	}
	built := make(map[string]*spatial.RoutingDomain)
	var valid []*spatial.RoutingDomain
	for _, id := range g.DomainIDs() {
		d, _ := g.Domain(id)
		built[id] = d
		valid = append(valid, d)
	}
	p.gen = targets.NewGenerator(built, o.opts.Hanan, o.opts.MaxCandidates)

	byID := make(map[string]*core.RoutingTarget, len(in.Targets))
	for _, t := range in.Targets {
		tc := t
		tc.Systems = append([]core.SystemType(nil), t.Systems...)
		p.targets = append(p.targets, &tc)
		byID[tc.ID] = &tc
	}

	res := &OrchestrationResult{
		Warnings:  warnings,
		Graph:     g.Stats(),
		Domains:   built,
		Occupancy: p.occ,
		order:     o.tradeOrder(in.Connectors),
	}
	done := o.reservePrior(p, in, byID, res)

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	zones := o.opts.Zones.Zones(valid)
	zoneOf := make(map[string]int)
	for i, z := range zones {
		for _, id := range z.Domains {
			zoneOf[id] = i
		}
	}

	for _, trade := range res.order {
		perZone := make([][]core.ConnectorInfo, len(zones))
		var stray []core.ConnectorInfo
		for _, c := range in.Connectors {
			if c.SystemType != trade || done[c.ID] {
				continue
			}
			if i, ok := zoneOf[c.DomainID]; ok {
				perZone[i] = append(perZone[i], c)
			} else {
				stray = append(stray, c)
			}
		}

		passes, err := o.routeTrade(ctx, p, zones, perZone)
		if err != nil {
			return nil, err
		}
		if len(stray) > 0 {
			// Unknown or malformed domains fail inside the router with the matching reason.
			r := o.router(p, p.occ, Zone{ID: "unzoned"}, map[string]bool{})
			passes = append(passes, r.Route(ctx, stray))
		}
		for _, pass := range passes {
			o.log.Info("pass complete",
				slog.String("trade", string(trade)),
				slog.String("zone", pass.Zone),
				slog.Int("committed", pass.Stats.Committed),
				slog.Int("failed", pass.Stats.Failed),
				slog.Int("retries", pass.Stats.Retries))
		}
		res.Passes = append(res.Passes, passes...)
	}

	res.Targets = make([]core.RoutingTarget, 0, len(p.targets))
	for _, t := range p.targets {
		res.Targets = append(res.Targets, *t)
	}
	res.Elapsed = time.Since(start)
	o.log.Debug("path cache", slog.String("stats", p.finder.CacheStats()))
	return res, nil
}

// routeTrade routes one trade in every zone that has connectors for it.
func (o *Orchestrator) routeTrade(ctx context.Context, p *plan, zones []Zone, perZone [][]core.ConnectorInfo) ([]core.RoutingResult, error) {
	out := make([]core.RoutingResult, len(zones))
	active := make([]bool, len(zones))

	if !o.opts.Parallel {
		for i, z := range zones {
			if len(perZone[i]) == 0 {
				continue
			}
			active[i] = true
			out[i] = o.router(p, p.occ, z, zoneDomains(z)).Route(ctx, perZone[i])
		}
		return compact(out, active), nil
	}

	parts := make([]*spatial.OccupancyMap, len(zones))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, z := range zones {
		if len(perZone[i]) == 0 {
			continue
		}
		active[i] = true
		parts[i] = p.occ.Partition(z.Domains)
		eg.Go(func() error {
			out[i] = o.router(p, parts[i], z, zoneDomains(z)).Route(egCtx, perZone[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var owned []*spatial.OccupancyMap
	for i, part := range parts {
		if active[i] {
			owned = append(owned, part)
		}
	}
	if err := p.occ.MergeAll(owned...); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return compact(out, active), nil
}

func (o *Orchestrator) router(p *plan, occ *spatial.OccupancyMap, z Zone, domains map[string]bool) *routing.Router {
	return routing.New(p.graph, occ, p.gen, p.finder, p.targets, routing.Options{
		TradePriority:    o.opts.TradePriority,
		Clearance:        o.opts.Clearance,
		DefaultClearance: o.opts.DefaultClearance,
		ConflictRetries:  o.opts.ConflictRetries,
		Domains:          domains,
		Malformed:        p.malformed,
		Zone:             z.ID,
		Logger:           o.log,
	})
}

// reservePrior commits earlier routes to the ledger and consumes their target capacity.
// It returns the connectors they cover.
func (o *Orchestrator) reservePrior(p *plan, in Input, targets map[string]*core.RoutingTarget, res *OrchestrationResult) map[string]bool {
	demand := make(map[string]float64, len(in.Connectors))
	for _, c := range in.Connectors {
		demand[c.ID] = c.Demand()
	}

	done := make(map[string]bool, len(in.Prior))
	for _, r := range in.Prior {
		clearance := o.opts.DefaultClearance
		if c, ok := o.opts.Clearance[r.SystemType]; ok {
			clearance = c
		}
		p.occ.Commit(r, clearance)
		if t, ok := targets[r.TargetID]; ok {
			d, ok := demand[r.ConnectorID]
			if !ok {
				d = 1
			}
			t.Capacity -= d
		}
		done[r.ConnectorID] = true
		res.Prior = append(res.Prior, r.Clone())
	}
	if len(in.Prior) > 0 {
		o.log.Info("prior routes reserved", slog.Int("routes", len(in.Prior)), slog.Int("segments", p.occ.Len()))
	}
	return done
}

// tradeOrder lists the trades present in the input: configured priority first, unknown trades after by name.
func (o *Orchestrator) tradeOrder(conns []core.ConnectorInfo) []core.SystemType {
	present := make(map[core.SystemType]bool)
	for _, c := range conns {
		present[c.SystemType] = true
	}
	rank := routing.TradeRank(o.opts.TradePriority)
	order := make([]core.SystemType, 0, len(present))
	for s := range present {
		order = append(order, s)
	}
	sort.Slice(order, func(i, j int) bool {
		if ri, rj := rank(order[i]), rank(order[j]); ri != rj {
			return ri < rj
		}
		return order[i] < order[j]
	})
	return order
}

func checkIDs(in Input) error {
	seen := make(map[string]bool)
	for _, c := range in.Connectors {
		if seen[c.ID] {
			return fmt.Errorf("orchestrator: connector %s: %w", c.ID, core.ErrDuplicateID)
		}
		seen[c.ID] = true
	}
	seen = make(map[string]bool)
	for _, t := range in.Targets {
		if seen[t.ID] {
			return fmt.Errorf("orchestrator: target %s: %w", t.ID, core.ErrDuplicateID)
		}
		seen[t.ID] = true
	}
	return nil
}

func zoneDomains(z Zone) map[string]bool {
	m := make(map[string]bool, len(z.Domains))
	for _, id := range z.Domains {
		m[id] = true
	}
	return m
}

func compact(results []core.RoutingResult, active []bool) []core.RoutingResult {
	var out []core.RoutingResult
	for i, r := range results {
		if active[i] {
			out = append(out, r)
		}
	}
	return out
}
