package orchestrator

import (
	"sort"
	"time"

	"riserroute/core"
	"riserroute/graph"
	"riserroute/spatial"
)

// Limitation is reported with every summary.
const Limitation = "routes are committed greedily in trade priority order; results are not globally optimal"

// OrchestrationResult aggregates the zone/trade passes of one run.
type OrchestrationResult struct {
	Passes   []core.RoutingResult
	Prior    []core.Route
	Warnings []graph.Warning
	Graph    graph.Stats
	// Targets holds the targets with their remaining capacity.
	Targets []core.RoutingTarget
	// Domains holds the domains that built, by id.
	Domains map[string]*spatial.RoutingDomain
	// Occupancy is the ledger after the run, prior routes included.
	Occupancy *spatial.OccupancyMap
	Elapsed   time.Duration

	order []core.SystemType
}

// AllRoutes returns prior routes followed by the routes committed in this run, in commit order.
func (r *OrchestrationResult) AllRoutes() []core.Route {
	out := append([]core.Route(nil), r.Prior...)
	for _, p := range r.Passes {
		out = append(out, p.Routes...)
	}
	return out
}

// RoutesByTrade groups every route by system type.
func (r *OrchestrationResult) RoutesByTrade() map[core.SystemType][]core.Route {
	out := make(map[core.SystemType][]core.Route)
	for _, route := range r.AllRoutes() {
		out[route.SystemType] = append(out[route.SystemType], route)
	}
	return out
}

// Failed returns every failed connector in routing order.
func (r *OrchestrationResult) Failed() []core.FailedConnector {
	var out []core.FailedConnector
	for _, p := range r.Passes {
		out = append(out, p.Failed...)
	}
	return out
}

// Trades returns the trades of the run in the order they were routed.
func (r *OrchestrationResult) Trades() []core.SystemType {
	return append([]core.SystemType(nil), r.order...)
}

// TradeSummary counts one trade's outcomes.
type TradeSummary struct {
	Attempted int     `json:"attempted" yaml:"attempted"`
	Committed int     `json:"committed" yaml:"committed"`
	Failed    int     `json:"failed" yaml:"failed"`
	Length    float64 `json:"length" yaml:"length"`
}

// Summary is the serializable outcome of a run.
type Summary struct {
	Attempted   int                              `json:"attempted" yaml:"attempted"`
	Committed   int                              `json:"committed" yaml:"committed"`
	Failed      int                              `json:"failed" yaml:"failed"`
	Prior       int                              `json:"prior" yaml:"prior"`
	Retries     int                              `json:"retries" yaml:"retries"`
	Expansions  int                              `json:"expansions" yaml:"expansions"`
	TotalLength float64                          `json:"total_length" yaml:"total_length"`
	ByTrade     map[core.SystemType]TradeSummary `json:"by_trade" yaml:"by_trade"`
	ByReason    map[core.FailureReason]int       `json:"by_reason" yaml:"by_reason"`
	Warnings    []graph.Warning                  `json:"warnings" yaml:"warnings"`
	Limitation  string                           `json:"limitation" yaml:"limitation"`
}

// Summary totals the run.
func (r *OrchestrationResult) Summary() Summary {
	s := Summary{
		Prior:      len(r.Prior),
		ByTrade:    make(map[core.SystemType]TradeSummary),
		ByReason:   make(map[core.FailureReason]int),
		Warnings:   append([]graph.Warning(nil), r.Warnings...),
		Limitation: Limitation,
	}
	var stats core.Stats
	for _, p := range r.Passes {
		stats.Add(p.Stats)
		for _, f := range p.Failed {
			s.ByReason[f.Reason]++
			ts := s.ByTrade[f.Connector.SystemType]
			ts.Attempted++
			ts.Failed++
			s.ByTrade[f.Connector.SystemType] = ts
		}
		for _, route := range p.Routes {
			ts := s.ByTrade[route.SystemType]
			ts.Attempted++
			ts.Committed++
			ts.Length += route.Length()
			s.ByTrade[route.SystemType] = ts
			s.TotalLength += route.Length()
		}
	}
	for _, route := range r.Prior {
		s.TotalLength += route.Length()
	}
	s.Attempted = stats.Attempted
	s.Committed = stats.Committed
	s.Failed = stats.Failed
	s.Retries = stats.Retries
	s.Expansions = stats.Expansions
	return s
}

// FailureReasons returns the reasons present in a summary, sorted.
func (s Summary) FailureReasons() []core.FailureReason {
	out := make([]core.FailureReason, 0, len(s.ByReason))
	for reason := range s.ByReason {
		out = append(out, reason)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
