package export

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/graph"
	"riserroute/orchestrator"
	"riserroute/sanitary"
	"riserroute/spatial"
)

// Vec is a world-space point.
type Vec struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func vecOf(v geometry.Vec3) Vec { return Vec{X: v.X, Y: v.Y, Z: v.Z} }

func (v Vec) vec3() geometry.Vec3 { return geometry.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

func pointOf(p geometry.Point) [2]float64 { return [2]float64{p[0], p[1]} }

// TransformRecord maps domain-local coordinates to world space.
type TransformRecord struct {
	Origin Vec `json:"origin" yaml:"origin"`
	U      Vec `json:"u" yaml:"u"`
	V      Vec `json:"v" yaml:"v"`
}

// ObstacleRecord is one obstacle of a domain. Bounds are [minX, minY, maxX, maxY].
type ObstacleRecord struct {
	ID             string               `json:"id" yaml:"id"`
	Kind           spatial.ObstacleKind `json:"kind" yaml:"kind"`
	Bounds         [4]float64           `json:"bounds" yaml:"bounds"`
	Penetrable     bool                 `json:"penetrable,omitempty" yaml:"penetrable,omitempty"`
	CostMultiplier float64              `json:"cost_multiplier,omitempty" yaml:"cost_multiplier,omitempty"`
}

// DomainRecord is a routing surface. A missing transform defaults by kind:
// walls and shafts run along world X at the origin, floors and ceilings are at z=0.
type DomainRecord struct {
	ID        string           `json:"id" yaml:"id"`
	Kind      core.DomainKind  `json:"kind" yaml:"kind"`
	Level     int              `json:"level" yaml:"level"`
	Bounds    [4]float64       `json:"bounds" yaml:"bounds"`
	Depth     float64          `json:"depth" yaml:"depth"`
	Obstacles []ObstacleRecord `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	Neighbors []string         `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
	Transform *TransformRecord `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// ConnectorRecord is a fixture or device terminal.
type ConnectorRecord struct {
	ID         string          `json:"id" yaml:"id"`
	SystemType core.SystemType `json:"system_type" yaml:"system_type"`
	DomainID   string          `json:"domain_id" yaml:"domain_id"`
	Position   [2]float64      `json:"position" yaml:"position"`
	Location   *Vec            `json:"location,omitempty" yaml:"location,omitempty"`
	Diameter   float64         `json:"diameter" yaml:"diameter"`
	Priority   int             `json:"priority,omitempty" yaml:"priority,omitempty"`
	Load       float64         `json:"load,omitempty" yaml:"load,omitempty"`
}

// TargetRecord is a riser or convergence point. A nil capacity is unlimited.
type TargetRecord struct {
	ID       string            `json:"id" yaml:"id"`
	DomainID string            `json:"domain_id" yaml:"domain_id"`
	Position [2]float64        `json:"position" yaml:"position"`
	Systems  []core.SystemType `json:"systems" yaml:"systems"`
	Capacity *float64          `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Priority int               `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// SegmentRecord is one straight run of a route.
type SegmentRecord struct {
	DomainID    string     `json:"domain_id" yaml:"domain_id"`
	ToDomainID  string     `json:"to_domain_id,omitempty" yaml:"to_domain_id,omitempty"`
	Start       [2]float64 `json:"start" yaml:"start"`
	End         [2]float64 `json:"end" yaml:"end"`
	StartWorld  Vec        `json:"start_world" yaml:"start_world"`
	EndWorld    Vec        `json:"end_world" yaml:"end_world"`
	Orientation string     `json:"orientation" yaml:"orientation"`
	Cost        float64    `json:"cost" yaml:"cost"`
	Transition  bool       `json:"transition,omitempty" yaml:"transition,omitempty"`
	Slope       float64    `json:"slope,omitempty" yaml:"slope,omitempty"`
}

// RouteRecord is a committed route. Plan is the route's footprint in world plan view.
type RouteRecord struct {
	ID             string          `json:"id" yaml:"id"`
	ConnectorID    string          `json:"connector_id" yaml:"connector_id"`
	TargetID       string          `json:"target_id" yaml:"target_id"`
	SystemType     core.SystemType `json:"system_type" yaml:"system_type"`
	Diameter       float64         `json:"diameter" yaml:"diameter"`
	Priority       int             `json:"priority,omitempty" yaml:"priority,omitempty"`
	Cost           float64         `json:"cost" yaml:"cost"`
	TopologyLength float64         `json:"topology_length" yaml:"topology_length"`
	Length         float64         `json:"length" yaml:"length"`
	Segments       []SegmentRecord `json:"segments" yaml:"segments"`
	Vertices       []Vec           `json:"vertices" yaml:"vertices"`
	Plan           orb.LineString  `json:"plan" yaml:"plan"`
}

// FailureRecord is a connector that could not be routed.
type FailureRecord struct {
	ConnectorID string             `json:"connector_id" yaml:"connector_id"`
	SystemType  core.SystemType    `json:"system_type" yaml:"system_type"`
	DomainID    string             `json:"domain_id" yaml:"domain_id"`
	Reason      core.FailureReason `json:"reason" yaml:"reason"`
	Detail      string             `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Input is the boundary record of a planning request.
type Input struct {
	Domains    []DomainRecord    `json:"domains" yaml:"domains"`
	Connectors []ConnectorRecord `json:"connectors" yaml:"connectors"`
	Targets    []TargetRecord    `json:"targets" yaml:"targets"`
	Prior      []RouteRecord     `json:"prior,omitempty" yaml:"prior,omitempty"`
	// Config overrides configuration keys for this request only, using the config file's keys.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Output is the boundary record of a planning result.
type Output struct {
	Routes      []RouteRecord         `json:"routes" yaml:"routes"`
	Failed      []FailureRecord       `json:"failed" yaml:"failed"`
	Targets     []TargetRecord        `json:"targets" yaml:"targets"`
	Diagnostics []sanitary.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Graph       graph.Stats           `json:"graph" yaml:"graph"`
	Summary     orchestrator.Summary  `json:"summary" yaml:"summary"`
	ElapsedMS   int64                 `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// DecodeInput parses an input document in JSON or YAML.
func DecodeInput(data []byte, format Format) (*Input, error) {
	var in Input
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &in)
	default:
		err = json.Unmarshal(data, &in)
	}
	if err != nil {
		return nil, fmt.Errorf("export: decode %s input: %w", format, err)
	}
	return &in, nil
}

// Problem converts the records into an orchestration input.
func (in *Input) Problem() (orchestrator.Input, error) {
	var out orchestrator.Input
	for _, d := range in.Domains {
		out.Domains = append(out.Domains, d.domain())
	}
	for _, c := range in.Connectors {
		if c.ID == "" {
			return out, fmt.Errorf("export: connector without id in domain %s", c.DomainID)
		}
		out.Connectors = append(out.Connectors, c.connector())
	}
	for _, t := range in.Targets {
		if t.ID == "" {
			return out, fmt.Errorf("export: target without id in domain %s", t.DomainID)
		}
		if t.Capacity != nil && *t.Capacity < 0 {
			return out, fmt.Errorf("export: target %s has negative capacity", t.ID)
		}
		out.Targets = append(out.Targets, t.target())
	}
	for _, r := range in.Prior {
		out.Prior = append(out.Prior, r.Route())
	}
	return out, nil
}

func (d DomainRecord) domain() *spatial.RoutingDomain {
	rd := &spatial.RoutingDomain{
		ID:        d.ID,
		Kind:      d.Kind,
		Level:     d.Level,
		Bounds:    geometry.NewBox(d.Bounds[0], d.Bounds[1], d.Bounds[2], d.Bounds[3]),
		Depth:     d.Depth,
		Neighbors: append([]string(nil), d.Neighbors...),
	}
	for _, o := range d.Obstacles {
		rd.Obstacles = append(rd.Obstacles, spatial.Obstacle{
			ID:             o.ID,
			Kind:           o.Kind,
			Bounds:         geometry.NewBox(o.Bounds[0], o.Bounds[1], o.Bounds[2], o.Bounds[3]),
			Penetrable:     o.Penetrable,
			CostMultiplier: o.CostMultiplier,
		})
	}
	switch {
	case d.Transform != nil:
		rd.Transform = spatial.Transform{Origin: d.Transform.Origin.vec3(), U: d.Transform.U.vec3(), V: d.Transform.V.vec3()}
	case d.Kind.Vertical():
		rd.Transform = spatial.WallAlongX(geometry.Vec3{})
	default:
		rd.Transform = spatial.IdentityFloor(0)
	}
	return rd
}

func (c ConnectorRecord) connector() core.ConnectorInfo {
	ci := core.ConnectorInfo{
		ID:         c.ID,
		SystemType: c.SystemType,
		DomainID:   c.DomainID,
		Position:   geometry.Pt(c.Position[0], c.Position[1]),
		Diameter:   c.Diameter,
		Priority:   c.Priority,
		Load:       c.Load,
	}
	if c.Location != nil {
		ci.Location = c.Location.vec3()
	}
	return ci
}

func (t TargetRecord) target() core.RoutingTarget {
	rt := core.RoutingTarget{
		ID:       t.ID,
		DomainID: t.DomainID,
		Position: geometry.Pt(t.Position[0], t.Position[1]),
		Systems:  append([]core.SystemType(nil), t.Systems...),
		Capacity: core.UnlimitedCapacity,
		Priority: t.Priority,
	}
	if t.Capacity != nil {
		rt.Capacity = *t.Capacity
	}
	return rt
}

// Route converts the record back into a route.
func (r RouteRecord) Route() core.Route {
	route := core.Route{
		ID:             r.ID,
		ConnectorID:    r.ConnectorID,
		TargetID:       r.TargetID,
		SystemType:     r.SystemType,
		Diameter:       r.Diameter,
		Priority:       r.Priority,
		Cost:           r.Cost,
		TopologyLength: r.TopologyLength,
	}
	for _, s := range r.Segments {
		route.Segments = append(route.Segments, core.RouteSegment{
			DomainID:   s.DomainID,
			ToDomainID: s.ToDomainID,
			Start:      geometry.Pt(s.Start[0], s.Start[1]),
			End:        geometry.Pt(s.End[0], s.End[1]),
			StartWorld: s.StartWorld.vec3(),
			EndWorld:   s.EndWorld.vec3(),
			Cost:       s.Cost,
			Transition: s.Transition,
			Slope:      s.Slope,
		})
	}
	return route
}

// RouteRecordOf converts a route into its boundary record.
func RouteRecordOf(r core.Route) RouteRecord {
	rec := RouteRecord{
		ID:             r.ID,
		ConnectorID:    r.ConnectorID,
		TargetID:       r.TargetID,
		SystemType:     r.SystemType,
		Diameter:       r.Diameter,
		Priority:       r.Priority,
		Cost:           r.Cost,
		TopologyLength: r.TopologyLength,
		Length:         r.Length(),
		Segments:       make([]SegmentRecord, 0, len(r.Segments)),
	}
	for _, s := range r.Segments {
		rec.Segments = append(rec.Segments, SegmentRecord{
			DomainID:    s.DomainID,
			ToDomainID:  s.ToDomainID,
			Start:       pointOf(s.Start),
			End:         pointOf(s.End),
			StartWorld:  vecOf(s.StartWorld),
			EndWorld:    vecOf(s.EndWorld),
			Orientation: s.Orientation().String(),
			Cost:        s.Cost,
			Transition:  s.Transition,
			Slope:       s.Slope,
		})
	}
	for _, v := range r.Vertices() {
		rec.Vertices = append(rec.Vertices, vecOf(v))
		p := orb.Point{v.X, v.Y}
		if n := len(rec.Plan); n == 0 || rec.Plan[n-1] != p {
			rec.Plan = append(rec.Plan, p)
		}
	}
	return rec
}

// TargetRecordOf converts a target into its boundary record.
func TargetRecordOf(t core.RoutingTarget) TargetRecord {
	rec := TargetRecord{
		ID:       t.ID,
		DomainID: t.DomainID,
		Position: pointOf(t.Position),
		Systems:  append([]core.SystemType(nil), t.Systems...),
		Priority: t.Priority,
	}
	if !math.IsInf(t.Capacity, 1) {
		c := t.Capacity
		rec.Capacity = &c
	}
	return rec
}

// NewOutput builds the output document of a run. Routes, when non-nil, replace the result's
// routes, typically with their post-processed versions.
func NewOutput(res *orchestrator.OrchestrationResult, routes []core.Route, diags []sanitary.Diagnostic) *Output {
	if routes == nil {
		routes = res.AllRoutes()
	}
	out := &Output{
		Routes:      make([]RouteRecord, 0, len(routes)),
		Failed:      []FailureRecord{},
		Targets:     make([]TargetRecord, 0, len(res.Targets)),
		Diagnostics: diags,
		Graph:       res.Graph,
		Summary:     res.Summary(),
		ElapsedMS:   res.Elapsed.Milliseconds(),
	}
	for _, r := range routes {
		out.Routes = append(out.Routes, RouteRecordOf(r))
	}
	for _, f := range res.Failed() {
		out.Failed = append(out.Failed, FailureRecord{
			ConnectorID: f.Connector.ID,
			SystemType:  f.Connector.SystemType,
			DomainID:    f.Connector.DomainID,
			Reason:      f.Reason,
			Detail:      f.Detail,
		})
	}
	for _, t := range res.Targets {
		out.Targets = append(out.Targets, TargetRecordOf(t))
	}
	return out
}
