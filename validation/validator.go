// Package validation checks that routes are geometrically well formed.
package validation

import (
	"errors"
	"fmt"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/spatial"
)

// ErrInvalidRoute marks a route that failed validation.
var ErrInvalidRoute = errors.New("invalid route")

// worldTolerance bounds the drift allowed between consecutive segment endpoints in world space.
const worldTolerance = 1e-6

// ValidationError is one problem found in a route.
type ValidationError struct {
	RouteID string
	Segment int
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("route %s segment %d: %s", e.RouteID, e.Segment, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidRoute.
func (e ValidationError) Unwrap() error {
	return ErrInvalidRoute
}

// RouteValidator checks routes against the domains they run through.
type RouteValidator struct {
	domains map[string]*spatial.RoutingDomain
	errors  []ValidationError
}

// NewRouteValidator creates a validator over the given domains.
func NewRouteValidator(domains map[string]*spatial.RoutingDomain) *RouteValidator {
	return &RouteValidator{domains: domains}
}

func (v *RouteValidator) addError(r core.Route, i int, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{RouteID: r.ID, Segment: i, Message: fmt.Sprintf(format, args...)})
}

// Validate returns the problems of one route: unknown domains, endpoints outside their domain,
// gaps between consecutive segments, and runs through non-penetrable obstacles. A terminal that
// sits inside an obstacle may leave it on its first or last segment.
func (v *RouteValidator) Validate(r core.Route) []ValidationError {
	v.errors = nil
	if len(r.Segments) == 0 {
		v.addError(r, 0, "route has no segments")
		return v.errors
	}

	for i, s := range r.Segments {
		d, ok := v.domains[s.DomainID]
		if !ok {
			v.addError(r, i, "unknown domain %s", s.DomainID)
			continue
		}
		if !d.Contains(s.Start) {
			v.addError(r, i, "start %v outside domain %s", s.Start, d.ID)
		}
		if !sameXY(s.StartWorld, d.World(s.Start)) {
			v.addError(r, i, "start world position does not match domain %s", d.ID)
		}

		end := d
		if s.Transition {
			if end, ok = v.domains[s.ToDomainID]; !ok {
				v.addError(r, i, "transition to unknown domain %q", s.ToDomainID)
				continue
			}
		} else if s.ToDomainID != "" {
			v.addError(r, i, "in-domain segment names a destination domain %s", s.ToDomainID)
		}
		if !end.Contains(s.End) {
			v.addError(r, i, "end %v outside domain %s", s.End, end.ID)
		}

		if i > 0 {
			v.checkJoin(r, i)
		}
		if !s.Transition {
			v.checkObstacles(r, i, d)
		}
	}
	return v.errors
}

// checkJoin verifies segment i starts where segment i-1 ends.
func (v *RouteValidator) checkJoin(r core.Route, i int) {
	prev, s := r.Segments[i-1], r.Segments[i]
	at := prev.DomainID
	if prev.Transition {
		at = prev.ToDomainID
	}
	if s.DomainID != at {
		v.addError(r, i, "starts in domain %s but the previous segment ends in %s", s.DomainID, at)
		return
	}
	if !geometry.SamePoint(prev.End, s.Start) {
		v.addError(r, i, "gap between %v and %v", prev.End, s.Start)
	}
	if !geometry.NearVec(prev.EndWorld, s.StartWorld, worldTolerance) {
		v.addError(r, i, "world gap between %+v and %+v", prev.EndWorld, s.StartWorld)
	}
}

func (v *RouteValidator) checkObstacles(r core.Route, i int, d *spatial.RoutingDomain) {
	s := r.Segments[i]
	for _, o := range d.Obstacles {
		if o.Penetrable || !o.Crosses(s.Local()) {
			continue
		}
		if i == 0 && o.Blocks(s.Start) {
			continue
		}
		if i == len(r.Segments)-1 && o.Blocks(s.End) {
			continue
		}
		v.addError(r, i, "crosses non-penetrable obstacle %s", o.ID)
	}
}

// ValidateAll validates every route and returns all problems in route order.
func (v *RouteValidator) ValidateAll(routes []core.Route) []ValidationError {
	var all []ValidationError
	for _, r := range routes {
		all = append(all, v.Validate(r)...)
	}
	v.errors = all
	return all
}

// sameXY compares plan position only; sanitary slope moves world Z.
func sameXY(a, b geometry.Vec3) bool {
	return geometry.Near(a.X, b.X) && geometry.Near(a.Y, b.Y)
}
