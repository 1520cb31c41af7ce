package sanitary

import (
	"log/slog"
	"slices"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/spatial"
)

// substituteOffsets replaces each 90-90 offset jog with a 45-45 pair when both neighboring runs
// keep at least ElbowMinRun of straight pipe and the diagonal is clear. It returns the ids of the
// domains it changed, in route order.
func (p *Processor) substituteOffsets(route *core.Route, domains map[string]*spatial.RoutingDomain) []string {
	segs := route.Segments
	var touched []string
	for i := 0; i+2 < len(segs); {
		a, b, c := segs[i], segs[i+1], segs[i+2]
		repl, ok := p.offset(route, a, b, c, domains)
		if !ok {
			i++
			continue
		}
		segs[i], segs[i+1], segs[i+2] = repl[0], repl[1], repl[2]
		if !slices.Contains(touched, a.DomainID) {
			touched = append(touched, a.DomainID)
		}
		i += 2
	}
	route.Segments = segs
	return touched
}

// offset returns the 45-45 replacement of the jog a-b-c, or false when it does not apply.
func (p *Processor) offset(route *core.Route, a, b, c core.RouteSegment, domains map[string]*spatial.RoutingDomain) ([3]core.RouteSegment, bool) {
	var none [3]core.RouteSegment
	if a.Transition || b.Transition || c.Transition {
		return none, false
	}
	if a.DomainID != b.DomainID || b.DomainID != c.DomainID {
		return none, false
	}
	oa, ob, oc := a.Orientation(), b.Orientation(), c.Orientation()
	if oa == geometry.Diagonal || oa == geometry.Degenerate || oa != oc || ob == oa || ob == geometry.Diagonal || ob == geometry.Degenerate {
		return none, false
	}
	dir := a.Local().Direction()
	if !geometry.SamePoint(dir, c.Local().Direction()) {
		// a U-turn has no 45 degree equivalent
		return none, false
	}

	half := b.Local().Length() / 2
	la, lc := a.Local().Length(), c.Local().Length()
	if la-half < p.opts.ElbowMinRun-geometry.Epsilon || lc-half < p.opts.ElbowMinRun-geometry.Epsilon ||
		la-half <= geometry.Epsilon || lc-half <= geometry.Epsilon {
		return none, false
	}

	d, ok := domains[a.DomainID]
	if !ok {
		return none, false
	}
	from := geometry.Pt(a.End[0]-dir[0]*half, a.End[1]-dir[1]*half)
	to := geometry.Pt(c.Start[0]+dir[0]*half, c.Start[1]+dir[1]*half)
	diag := geometry.Segment{A: from, B: to}
	if reason := p.blocked(route, d, diag); reason != "" {
		p.log.Debug("offset kept at 90 degrees",
			slog.String("route", route.ID),
			slog.String("domain", d.ID),
			slog.String("reason", reason))
		return none, false
	}

	na := a
	na.End = from
	na.EndWorld = d.World(from)
	na.Cost = a.Cost * (la - half) / la

	nb := b
	nb.Start, nb.End = from, to
	nb.StartWorld, nb.EndWorld = d.World(from), d.World(to)
	nb.Cost = diag.Length()

	nc := c
	nc.Start = to
	nc.StartWorld = d.World(to)
	nc.Cost = c.Cost * (lc - half) / lc

	return [3]core.RouteSegment{na, nb, nc}, true
}

// blocked explains why the diagonal cannot be used, or returns "".
func (p *Processor) blocked(route *core.Route, d *spatial.RoutingDomain, diag geometry.Segment) string {
	if !d.Contains(diag.A) || !d.Contains(diag.B) {
		return "outside domain"
	}
	for _, o := range d.Obstacles {
		if o.Crosses(diag) {
			return "obstacle " + o.ID
		}
	}
	if p.opts.Occupancy == nil {
		return ""
	}
	conflicts := p.opts.Occupancy.Check(spatial.Query{
		DomainID:  d.ID,
		Segment:   diag,
		Diameter:  route.Diameter,
		Clearance: p.clearance(route.SystemType),
		RouteID:   route.ID,
		Trade:     route.SystemType,
		TargetID:  route.TargetID,
	})
	if len(conflicts) > 0 {
		return "clearance to route " + conflicts[0].Existing.RouteID
	}
	return ""
}
