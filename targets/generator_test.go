package targets

import (
	"math"
	"testing"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/hanan"
	"riserroute/spatial"
)

func testDomains() map[string]*spatial.RoutingDomain {
	return map[string]*spatial.RoutingDomain{
		"W1": {
			ID: "W1", Kind: core.KindWall, Bounds: geometry.NewBox(0, 0, 20, 9),
			Transform: spatial.WallAlongX(geometry.Vec3{Y: 5, Z: 1}),
		},
		"F1": {
			ID: "F1", Kind: core.KindFloor, Bounds: geometry.NewBox(0, 0, 30, 30), Depth: 1,
			Transform: spatial.IdentityFloor(0),
		},
	}
}

func target(id, domain string, x, y float64, systems ...core.SystemType) *core.RoutingTarget {
	return &core.RoutingTarget{
		ID: id, DomainID: domain, Position: geometry.Pt(x, y),
		Systems: systems, Capacity: core.UnlimitedCapacity,
	}
}

func ids(cands []Candidate) []string {
	var out []string
	for _, c := range cands {
		out = append(out, c.Target.ID)
	}
	return out
}

func TestRank_Failures(t *testing.T) {
	g := NewGenerator(testDomains(), hanan.Options{}, 5)
	conn := core.ConnectorInfo{ID: "C1", SystemType: core.Power, DomainID: "W1", Position: geometry.Pt(2, 1)}

	if _, reason := g.Rank(conn, []*core.RoutingTarget{target("R1", "W1", 2, 8, core.SanitaryDrain)}); reason != core.NoTargetAvailable {
		t.Errorf("incompatible targets: reason = %q, want no_target", reason)
	}

	full := target("P1", "W1", 2, 8, core.Power)
	full.Capacity = 0.5
	if _, reason := g.Rank(conn, []*core.RoutingTarget{full}); reason != core.CapacityExceeded {
		t.Errorf("exhausted target: reason = %q, want capacity_exceeded", reason)
	}

	lost := conn
	lost.DomainID = "W9"
	if _, reason := g.Rank(lost, []*core.RoutingTarget{target("P1", "W1", 2, 8, core.Power)}); reason != core.UnknownDomain {
		t.Errorf("unknown connector domain: reason = %q, want unknown_domain", reason)
	}
}

func TestRank_Ordering(t *testing.T) {
	g := NewGenerator(testDomains(), hanan.Options{}, 5)
	conn := core.ConnectorInfo{ID: "C1", SystemType: core.DomesticCold, DomainID: "W1", Position: geometry.Pt(5, 1)}

	tests := []struct {
		name    string
		targets []*core.RoutingTarget
		want    []string
	}{
		{
			name: "nearest first",
			targets: []*core.RoutingTarget{
				target("FAR", "W1", 18, 1, core.DomesticCold),
				target("NEAR", "W1", 7, 1, core.DomesticCold),
			},
			want: []string{"NEAR", "FAR"},
		},
		{
			name: "equal score falls back to priority then id",
			targets: func() []*core.RoutingTarget {
				a := target("B", "W1", 3, 1, core.DomesticCold)
				b := target("A", "W1", 7, 1, core.DomesticCold)
				c := target("C", "W1", 5, 3, core.DomesticCold)
				c.Priority = -1
				return []*core.RoutingTarget{a, b, c}
			}(),
			want: []string{"C", "A", "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := g.Rank(conn, tt.targets)
			if reason != "" {
				t.Fatalf("unexpected failure %q", reason)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("candidates = %v, want %v", ids(got), tt.want)
			}
			for i := range tt.want {
				if got[i].Target.ID != tt.want[i] {
					t.Errorf("candidates = %v, want %v", ids(got), tt.want)
					break
				}
			}
		})
	}
}

func TestRank_GravityPrefersDownhill(t *testing.T) {
	g := NewGenerator(testDomains(), hanan.Options{}, 5)
	conn := core.ConnectorInfo{ID: "WC1", SystemType: core.SanitaryDrain, DomainID: "W1", Position: geometry.Pt(5, 3)}

	got, _ := g.Rank(conn, []*core.RoutingTarget{
		target("UP", "W1", 5, 4, core.SanitaryDrain),
		target("DOWN", "W1", 10, 0, core.SanitaryDrain),
	})
	if len(got) != 2 || got[0].Target.ID != "DOWN" {
		t.Fatalf("candidates = %v, want DOWN first", ids(got))
	}
	if got[1].Score < Penalty {
		t.Errorf("uphill score = %v, want penalized", got[1].Score)
	}
}

func TestRank_CrossDomainTarget(t *testing.T) {
	g := NewGenerator(testDomains(), hanan.Options{}, 5)
	conn := core.ConnectorInfo{ID: "C1", SystemType: core.Vent, DomainID: "W1", Position: geometry.Pt(2, 2)}

	// F1 (2,5) sits at world (2,5,0), one below the wall origin, i.e. local (2,-1) on W1.
	got, reason := g.Rank(conn, []*core.RoutingTarget{target("R1", "F1", 2, 5, core.Vent)})
	if reason != "" {
		t.Fatalf("unexpected failure %q", reason)
	}
	if math.Abs(got[0].Topology-3) > 1e-9 {
		t.Errorf("topology = %v, want 3", got[0].Topology)
	}

	off := target("R2", "F1", 2, 7, core.Vent)
	got, _ = g.Rank(conn, []*core.RoutingTarget{off})
	// projects to local (2,-1) with a 2 ft offset out of the wall plane
	if math.Abs(got[0].Topology-5) > 1e-9 {
		t.Errorf("topology with offset = %v, want 5", got[0].Topology)
	}
}

func TestRank_MaxCandidates(t *testing.T) {
	g := NewGenerator(testDomains(), hanan.Options{}, 2)
	conn := core.ConnectorInfo{ID: "C1", SystemType: core.Data, DomainID: "W1", Position: geometry.Pt(0, 0)}
	var ts []*core.RoutingTarget
	for i, x := range []float64{4, 8, 12, 16} {
		ts = append(ts, target(string(rune('A'+i)), "W1", x, 0, core.Data))
	}
	got, _ := g.Rank(conn, ts)
	if len(got) != 2 || got[0].Target.ID != "A" || got[1].Target.ID != "B" {
		t.Errorf("candidates = %v, want [A B]", ids(got))
	}
}

func TestHeuristics(t *testing.T) {
	base := Situation{
		Connector: core.ConnectorInfo{DomainID: "W1", Position: geometry.Pt(2, 1)},
		Target:    core.RoutingTarget{DomainID: "W1", Position: geometry.Pt(6, 5)},
		Topology:  8,
	}
	aligned := base
	aligned.Target.Position = geometry.Pt(2, 9)

	tests := []struct {
		name string
		h    TargetHeuristic
		s    Situation
		want float64
	}{
		{"pressure", Pressure{}, base, 8},
		{"electrical bend", Electrical{BendPenalty: 1}, base, 9},
		{"electrical aligned", Electrical{BendPenalty: 1}, aligned, 8},
		{"lowvoltage within run", LowVoltage{MaxRun: 10}, base, 8},
		{"lowvoltage too long", LowVoltage{MaxRun: 5}, base, Penalty + 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.Score(tt.s); got != tt.want {
				t.Errorf("%s score = %v, want %v", tt.h.Name(), got, tt.want)
			}
		})
	}

	table := DefaultTable()
	for _, s := range core.KnownSystemTypes {
		if _, ok := table[s]; !ok {
			t.Errorf("no heuristic registered for %s", s)
		}
	}
}
