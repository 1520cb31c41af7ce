// Package sanitary post-processes committed gravity-drain routes: it slopes horizontal runs,
// softens offset jogs into 45 degree pairs and reports runs that cannot fall far enough.
package sanitary

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

// Bracket sets the minimum slope for pipes up to MaxDiameter. MaxDiameter 0 is unbounded.
type Bracket struct {
	MaxDiameter float64 `json:"max_diameter" yaml:"max_diameter"`
	MinSlope    float64 `json:"min_slope" yaml:"min_slope"`
}

// DefaultBrackets are 1/4 in/ft up to 3 in pipe and 1/8 in/ft above, in feet per foot.
func DefaultBrackets() []Bracket {
	return []Bracket{
		{MaxDiameter: 0.25, MinSlope: 1.0 / 48},
		{MaxDiameter: 0, MinSlope: 1.0 / 96},
	}
}

// DiagnosticCode classifies a post-processing finding.
type DiagnosticCode string

const (
	SlopeInfeasible DiagnosticCode = "slope_infeasible"
	MissingDomain   DiagnosticCode = "missing_domain"
)

// Diagnostic reports a validation failure on one segment. Geometry is never clamped to hide it.
type Diagnostic struct {
	Code        DiagnosticCode `json:"code" yaml:"code"`
	RouteID     string         `json:"route_id" yaml:"route_id"`
	ConnectorID string         `json:"connector_id" yaml:"connector_id"`
	DomainID    string         `json:"domain_id" yaml:"domain_id"`
	Segment     int            `json:"segment" yaml:"segment"`
	Required    float64        `json:"required" yaml:"required"`
	Available   float64        `json:"available" yaml:"available"`
	Message     string         `json:"message" yaml:"message"`
}

// DefaultElbowMinRun is the straight pipe kept on each side of a substituted 45 degree pair.
const DefaultElbowMinRun = 0.5

// Options configures a Processor.
type Options struct {
	Brackets []Bracket
	// ElbowMinRun of zero means DefaultElbowMinRun.
	ElbowMinRun float64
	// Occupancy, when set, is checked before an offset is substituted and updated after.
	Occupancy        *spatial.OccupancyMap
	Clearance        map[core.SystemType]float64
	DefaultClearance float64
	Logger           *slog.Logger
}

// Processor applies slope and offset rules to gravity routes.
type Processor struct {
	opts Options
	log  *slog.Logger
}

// NewProcessor creates a processor. Empty brackets use DefaultBrackets.
func NewProcessor(opts Options) *Processor {
	if len(opts.Brackets) == 0 {
		opts.Brackets = DefaultBrackets()
	}
	opts.Brackets = sortBrackets(opts.Brackets)
	if opts.ElbowMinRun == 0 {
		opts.ElbowMinRun = DefaultElbowMinRun
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{opts: opts, log: log}
}

func sortBrackets(in []Bracket) []Bracket {
	out := append([]Bracket(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].MaxDiameter, out[j].MaxDiameter
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})
	return out
}

// MinSlope returns the minimum slope for a pipe diameter.
func (p *Processor) MinSlope(diameter float64) float64 {
	for _, b := range p.opts.Brackets {
		if b.MaxDiameter == 0 || diameter <= b.MaxDiameter+geometry.Epsilon {
			return b.MinSlope
		}
	}
	return p.opts.Brackets[len(p.opts.Brackets)-1].MinSlope
}

func (p *Processor) clearance(s core.SystemType) float64 {
	if c, ok := p.opts.Clearance[s]; ok {
		return c
	}
	return p.opts.DefaultClearance
}

// Process returns the routes with gravity routes sloped and offsets substituted, plus diagnostics.
// Other routes are returned unchanged. The input routes are not modified.
func (p *Processor) Process(routes []core.Route, domains map[string]*spatial.RoutingDomain) ([]core.Route, []Diagnostic) {
	out := make([]core.Route, 0, len(routes))
	var diags []Diagnostic
	for _, r := range routes {
		route := r.Clone()
		if !route.SystemType.IsGravity() {
			out = append(out, route)
			continue
		}

		if touched := p.substituteOffsets(&route, domains); len(touched) > 0 {
			p.log.Debug("offsets substituted", slog.String("route", route.ID), slog.Any("domains", touched))
			if p.opts.Occupancy != nil {
				for _, id := range touched {
					p.opts.Occupancy.ReleaseIn(id, route.ID)
					p.opts.Occupancy.CommitIn(id, route, p.clearance(route.SystemType))
				}
			}
		}
		d := p.slope(&route, domains)
		for _, diag := range d {
			p.log.Warn("sanitary diagnostic",
				slog.String("code", string(diag.Code)),
				slog.String("route", diag.RouteID),
				slog.String("connector", diag.ConnectorID),
				slog.String("domain", diag.DomainID),
				slog.Float64("required", diag.Required),
				slog.Float64("available", diag.Available))
		}
		diags = append(diags, d...)
		out = append(out, route)
	}
	return out, diags
}

// slope walks the route from the fixture toward the target, lowering every vertex by the drop
// accumulated so far. The run drop resets at vertical segments and domain entries.
func (p *Processor) slope(route *core.Route, domains map[string]*spatial.RoutingDomain) []Diagnostic {
	minSlope := p.MinSlope(route.Diameter)
	var diags []Diagnostic

	drop := 0.0
	run := 0.0
	var runStart *geometry.Point
	reported := map[string]bool{}

	for i := range route.Segments {
		s := &route.Segments[i]
		flat := !s.Transition && worldHorizontal(*s)
		length := s.Length()
		s.StartWorld.Z -= drop
		if !flat {
			s.EndWorld.Z -= drop
			run, runStart = 0, nil
			continue
		}

		if runStart == nil {
			start := s.Start
			runStart = &start
		}
		fall := length * minSlope
		s.Slope = minSlope
		drop += fall
		run += fall
		s.EndWorld.Z -= drop

		d, ok := domains[s.DomainID]
		if !ok {
			if !reported[s.DomainID] {
				reported[s.DomainID] = true
				diags = append(diags, Diagnostic{
					Code: MissingDomain, RouteID: route.ID, ConnectorID: route.ConnectorID,
					DomainID: s.DomainID, Segment: i,
					Message: fmt.Sprintf("domain %s not available for slope validation", s.DomainID),
				})
			}
			continue
		}
		if avail := d.AvailableDrop(*runStart, route.Diameter); run > avail+geometry.Epsilon {
			diags = append(diags, Diagnostic{
				Code: SlopeInfeasible, RouteID: route.ID, ConnectorID: route.ConnectorID,
				DomainID: s.DomainID, Segment: i, Required: run, Available: math.Max(avail, 0),
				Message: fmt.Sprintf("run needs %.3f ft of fall, %s allows %.3f ft", run, s.DomainID, math.Max(avail, 0)),
			})
		}
	}
	return diags
}

func worldHorizontal(s core.RouteSegment) bool {
	return math.Abs(s.EndWorld.Z-s.StartWorld.Z) <= 1e-9
}
