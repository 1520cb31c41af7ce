package planner

import (
	"context"
	"errors"
	"testing"

	"riserroute/config"
	"riserroute/core"
	"riserroute/export"
	"riserroute/sanitary"
	"riserroute/spatial"
	"riserroute/validation"
)

func input(t *testing.T) *export.Input {
	t.Helper()
	doc := `
domains:
  - {id: F1, kind: floor, level: 0, bounds: [0, 0, 40, 20], depth: 0.1}
  - {id: W1, kind: wall, level: 0, bounds: [0, 0, 12, 9], depth: 0.29}
connectors:
  - {id: WC1, system_type: sanitary_drain, domain_id: F1, position: [1, 1], diameter: 0.25}
  - {id: RC1, system_type: power, domain_id: W1, position: [2, 1.5], diameter: 0.05}
targets:
  - {id: R1, domain_id: F1, position: [35, 1], systems: [sanitary_drain]}
  - {id: P1, domain_id: W1, position: [10, 8], systems: [power]}
`
	in, err := export.DecodeInput([]byte(doc), export.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func TestPlan(t *testing.T) {
	res, err := New(nil, nil).Plan(context.Background(), input(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Output.Summary.Committed != 2 || len(res.Routes) != 2 {
		t.Fatalf("summary = %+v", res.Output.Summary)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics without sanitary processing: %+v", res.Diagnostics)
	}
	if scene := res.Scene(); len(scene.Domains) != 2 || len(scene.Routes) != 2 || len(scene.Targets) != 2 {
		t.Errorf("scene = %+v", scene)
	}
}

func TestPlan_Sanitary(t *testing.T) {
	cfg := config.Defaults()
	p := New(cfg, nil)
	p.EnableSanitary()
	res, err := p.Plan(context.Background(), input(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	// 34 ft of 3 in drain at 1/48 needs about 0.71 ft of fall; the floor allows none.
	if len(res.Output.Diagnostics) == 0 || res.Output.Diagnostics[0].Code != sanitary.SlopeInfeasible {
		t.Fatalf("diagnostics = %+v", res.Output.Diagnostics)
	}
	for _, r := range res.Routes {
		if r.SystemType != core.SanitaryDrain {
			continue
		}
		last := r.Segments[len(r.Segments)-1]
		if last.EndWorld.Z >= 0 {
			t.Errorf("drain end z = %v, want below the connector", last.EndWorld.Z)
		}
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	in := input(t)
	in.Connectors = append(in.Connectors, in.Connectors[0])
	if _, err := New(nil, nil).Plan(context.Background(), in); err == nil {
		t.Error("duplicate connector ids should be an error")
	}
}

func TestPlan_RoutesValidate(t *testing.T) {
	p := New(nil, nil)
	p.EnableSanitary()
	res, err := p.Plan(context.Background(), input(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	domains := make(map[string]*spatial.RoutingDomain)
	for _, d := range res.Problem.Domains {
		domains[d.ID] = d
	}
	if errs := validation.NewRouteValidator(domains).ValidateAll(res.Routes); len(errs) != 0 {
		t.Errorf("planned routes do not validate: %v", errs)
	}
}

func TestPlan_PriorRoutes(t *testing.T) {
	first, err := New(nil, nil).Plan(context.Background(), input(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	in := input(t)
	in.Prior = first.Output.Routes
	again, err := New(nil, nil).Plan(context.Background(), in)
	if err != nil {
		t.Fatalf("re-plan: %v", err)
	}
	if again.Output.Summary.Attempted != 0 || again.Output.Summary.Prior != 2 {
		t.Errorf("re-run summary = %+v", again.Output.Summary)
	}

	broken := input(t)
	broken.Prior = append([]export.RouteRecord(nil), first.Output.Routes...)
	broken.Prior[0].Segments = nil
	_, err = New(nil, nil).Plan(context.Background(), broken)
	if !errors.Is(err, validation.ErrInvalidRoute) {
		t.Errorf("broken prior route: err = %v, want ErrInvalidRoute", err)
	}
}

func TestPlan_ConfigOverrides(t *testing.T) {
	cfg := config.Defaults()
	p := New(cfg, nil)
	p.EnableSanitary()

	in := input(t)
	in.Config = map[string]any{
		"trade_priority":  []any{"power", "sanitary_drain"},
		"slope_brackets":  []any{map[string]any{"max_diameter": 0, "min_slope": 0.01}},
		"routing_timeout": "45s",
	}
	res, err := p.Plan(context.Background(), in)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if trades := res.Run.Trades(); len(trades) != 2 || trades[0] != core.Power {
		t.Errorf("trades = %v, want power first", trades)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("the flat floor should still reject the drain")
	}
	for _, r := range res.Routes {
		if r.SystemType != core.SanitaryDrain {
			continue
		}
		for _, s := range r.Segments {
			if s.Slope != 0 && s.Slope != 0.01 {
				t.Errorf("slope = %v, want the overridden 0.01", s.Slope)
			}
		}
	}
	if cfg.TradePriority[0] != core.SanitaryDrain || cfg.SlopeBrackets[0].MinSlope != 1.0/48 {
		t.Error("overrides must not leak into the planner's configuration")
	}
}

func TestPlan_ConfigOverridesRejected(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]any
	}{
		{"invalid value", map[string]any{"conflict_retries": -1}},
		{"unknown trade", map[string]any{"trade_priority": []any{"steam"}}},
		{"unknown key", map[string]any{"trade_order": []any{"power"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t)
			in.Config = tt.override
			_, err := New(nil, nil).Plan(context.Background(), in)
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
