package validation

import (
	"errors"
	"strings"
	"testing"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/spatial"
)

func domains() map[string]*spatial.RoutingDomain {
	w := &spatial.RoutingDomain{
		ID: "W1", Kind: core.KindWall, Bounds: geometry.NewBox(0, 0, 10, 9), Depth: 0.29,
		Transform: spatial.WallAlongX(geometry.Vec3{}),
		Obstacles: []spatial.Obstacle{
			{ID: "P1", Kind: spatial.Plate, Bounds: geometry.NewBox(4, 5, 6, 6)},
			{ID: "S1", Kind: spatial.Stud, Bounds: geometry.NewBox(8, 0, 8.2, 9), Penetrable: true},
		},
	}
	f := &spatial.RoutingDomain{ID: "F1", Kind: core.KindFloor, Bounds: geometry.NewBox(0, 0, 10, 10), Depth: 1, Transform: spatial.IdentityFloor(9)}
	return map[string]*spatial.RoutingDomain{"W1": w, "F1": f}
}

func seg(ds map[string]*spatial.RoutingDomain, domain string, x1, y1, x2, y2 float64) core.RouteSegment {
	d := ds[domain]
	a, b := geometry.Pt(x1, y1), geometry.Pt(x2, y2)
	return core.RouteSegment{DomainID: domain, Start: a, End: b, StartWorld: d.World(a), EndWorld: d.World(b)}
}

func transition(ds map[string]*spatial.RoutingDomain, from, to string, x1, y1, x2, y2 float64) core.RouteSegment {
	a, b := geometry.Pt(x1, y1), geometry.Pt(x2, y2)
	return core.RouteSegment{
		DomainID: from, ToDomainID: to, Start: a, End: b, Transition: true,
		StartWorld: ds[from].World(a), EndWorld: ds[to].World(b),
	}
}

func TestRouteValidator(t *testing.T) {
	ds := domains()
	tests := []struct {
		name    string
		segs    []core.RouteSegment
		wantErr string
	}{
		{
			name: "valid route through a penetrable stud",
			segs: []core.RouteSegment{seg(ds, "W1", 1, 2, 9, 2), seg(ds, "W1", 9, 2, 9, 8)},
		},
		{
			name: "valid transition from wall to floor",
			segs: []core.RouteSegment{seg(ds, "W1", 1, 2, 1, 9), transition(ds, "W1", "F1", 1, 9, 1, 0), seg(ds, "F1", 1, 0, 1, 4)},
		},
		{
			name:    "no segments",
			wantErr: "no segments",
		},
		{
			name:    "gap between segments",
			segs:    []core.RouteSegment{seg(ds, "W1", 1, 2, 3, 2), seg(ds, "W1", 3, 3, 3, 4)},
			wantErr: "gap",
		},
		{
			name:    "domain jump without transition",
			segs:    []core.RouteSegment{seg(ds, "W1", 1, 2, 1, 9), seg(ds, "F1", 1, 0, 1, 4)},
			wantErr: "previous segment ends in W1",
		},
		{
			name:    "through a plate",
			segs:    []core.RouteSegment{seg(ds, "W1", 1, 5.5, 7, 5.5)},
			wantErr: "obstacle P1",
		},
		{
			name:    "outside the domain",
			segs:    []core.RouteSegment{seg(ds, "W1", 1, 2, 12, 2)},
			wantErr: "outside domain W1",
		},
		{
			name:    "unknown domain",
			segs:    []core.RouteSegment{{DomainID: "X9", Start: geometry.Pt(0, 0), End: geometry.Pt(1, 0)}},
			wantErr: "unknown domain X9",
		},
		{
			name:    "transition to unknown domain",
			segs:    []core.RouteSegment{{DomainID: "W1", ToDomainID: "X9", Transition: true, Start: geometry.Pt(1, 9), End: geometry.Pt(1, 0)}},
			wantErr: "unknown domain \"X9\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := core.Route{ID: "r1", Segments: tt.segs}
			errs := NewRouteValidator(ds).Validate(r)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors %v", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatalf("expected an error containing %q", tt.wantErr)
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e.Error(), tt.wantErr) {
					found = true
				}
				if !errors.Is(e, ErrInvalidRoute) {
					t.Errorf("%v should match ErrInvalidRoute", e)
				}
			}
			if !found {
				t.Errorf("errors %v, want one containing %q", errs, tt.wantErr)
			}
		})
	}
}

func TestRouteValidator_TerminalInsideObstacle(t *testing.T) {
	ds := domains()
	r := core.Route{ID: "r1", Segments: []core.RouteSegment{seg(ds, "W1", 5, 5.5, 5, 2), seg(ds, "W1", 5, 2, 7, 2)}}
	if errs := NewRouteValidator(ds).Validate(r); len(errs) != 0 {
		t.Errorf("a connector inside a plate may leave it: %v", errs)
	}
}

func TestRouteValidator_SlopedRoute(t *testing.T) {
	ds := domains()
	a, b := seg(ds, "F1", 1, 1, 5, 1), seg(ds, "F1", 5, 1, 5, 3)
	a.EndWorld.Z -= 0.1
	b.StartWorld.Z -= 0.1
	b.EndWorld.Z -= 0.15
	if errs := NewRouteValidator(ds).Validate(core.Route{ID: "r1", Segments: []core.RouteSegment{a, b}}); len(errs) != 0 {
		t.Errorf("sloped route should validate: %v", errs)
	}

	b.StartWorld.Z -= 0.2
	if errs := NewRouteValidator(ds).Validate(core.Route{ID: "r1", Segments: []core.RouteSegment{a, b}}); len(errs) != 1 {
		t.Errorf("world gap should be reported once, got %v", errs)
	}
}

func TestValidateAll(t *testing.T) {
	ds := domains()
	good := core.Route{ID: "ok", Segments: []core.RouteSegment{seg(ds, "W1", 1, 2, 3, 2)}}
	bad := core.Route{ID: "bad"}
	errs := NewRouteValidator(ds).ValidateAll([]core.Route{good, bad, good})
	if len(errs) != 1 || errs[0].RouteID != "bad" {
		t.Errorf("errors = %v", errs)
	}
}
