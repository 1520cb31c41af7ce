package spatial

import (
	"sync"
	"testing"

	"riserroute/core"
	"riserroute/geometry"
)

func drainMeta(id string) RouteMeta {
	return RouteMeta{RouteID: id, ConnectorID: "c-" + id, TargetID: "R1", Trade: core.SanitaryDrain, Diameter: 0.1, Clearance: 0.05}
}

func TestOccupancyMap_IsAvailable(t *testing.T) {
	m := NewOccupancyMap(Exemptions{})
	m.Reserve("W1", geometry.Seg(2, 1, 2, 8), drainMeta("r1"))

	tests := []struct {
		name      string
		seg       geometry.Segment
		available bool
	}{
		{"same line", geometry.Seg(2, 1.2, 2, 8), false},
		{"crossing", geometry.Seg(0, 4, 4, 4), false},
		// required separation = 0.1 + 0.05 = 0.15
		{"parallel too close", geometry.Seg(2.1, 1, 2.1, 8), false},
		{"parallel at separation", geometry.Seg(2.15, 1, 2.15, 8), true},
		{"parallel far", geometry.Seg(3, 1, 3, 8), true},
		{"beyond end", geometry.Seg(0, 8.5, 4, 8.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, owner := m.IsAvailable("W1", tt.seg, 0.1, 0.05)
			if ok != tt.available {
				t.Fatalf("IsAvailable = %v, want %v", ok, tt.available)
			}
			if !ok && owner != "r1" {
				t.Errorf("conflicting route = %q, want r1", owner)
			}
		})
	}

	if ok, _ := m.IsAvailable("W2", geometry.Seg(2, 1, 2, 8), 0.1, 0.05); !ok {
		t.Error("reservations must not leak across domains")
	}
}

func TestOccupancyMap_ExistingClearanceApplies(t *testing.T) {
	m := NewOccupancyMap(Exemptions{})
	meta := drainMeta("r1")
	meta.Clearance = 0.5
	m.Reserve("W1", geometry.Seg(2, 1, 2, 8), meta)

	if ok, _ := m.IsAvailable("W1", geometry.Seg(2.4, 1, 2.4, 8), 0.1, 0.0); ok {
		t.Error("the larger clearance of the two runs should apply")
	}
}

func TestOccupancyMap_JoinExemption(t *testing.T) {
	m := NewOccupancyMap(Exemptions{JoinRadius: 0.75})
	m.Reserve("W1", geometry.Seg(2, 1, 2, 8), drainMeta("r1"))
	join := geometry.Pt(2, 8)

	approach := Query{
		DomainID: "W1", Segment: geometry.Seg(4, 8, 2, 8),
		Diameter: 0.1, Clearance: 0.05, Trade: core.SanitaryDrain,
		TargetID: "R1", Join: &join,
	}
	if c := m.Check(approach); len(c) != 0 {
		t.Errorf("approach into shared target should be exempt, got %d conflicts", len(c))
	}

	alongside := approach
	alongside.Segment = geometry.Seg(2.05, 2, 2.05, 8)
	if c := m.Check(alongside); len(c) != 1 {
		t.Errorf("running alongside for most of the length must conflict, got %d", len(c))
	}

	other := approach
	other.TargetID = "R2"
	if c := m.Check(other); len(c) != 1 {
		t.Errorf("different target must conflict, got %d", len(c))
	}
}

func TestOccupancyMap_BundleExemption(t *testing.T) {
	m := NewOccupancyMap(Exemptions{BundleTrades: map[core.SystemType]bool{core.Data: true}})
	meta := drainMeta("d1")
	meta.Trade = core.Data
	m.Reserve("W1", geometry.Seg(0, 4, 10, 4), meta)

	if c := m.Check(Query{DomainID: "W1", Segment: geometry.Seg(0, 4.05, 10, 4.05), Diameter: 0.05, Trade: core.Data}); len(c) != 0 {
		t.Errorf("bundled data runs should be exempt, got %d conflicts", len(c))
	}
	if c := m.Check(Query{DomainID: "W1", Segment: geometry.Seg(0, 4.05, 10, 4.05), Diameter: 0.05, Trade: core.Power}); len(c) != 1 {
		t.Errorf("power beside data must conflict, got %d", len(c))
	}
}

func TestOccupancyMap_CommitAndRelease(t *testing.T) {
	m := NewOccupancyMap(Exemptions{})
	route := core.Route{
		ID: "r1", ConnectorID: "c1", TargetID: "R1", SystemType: core.Vent, Diameter: 0.1,
		Segments: []core.RouteSegment{
			{DomainID: "W1", Start: geometry.Pt(0, 0), End: geometry.Pt(0, 5)},
			{DomainID: "W1", ToDomainID: "F1", Transition: true},
			{DomainID: "F1", Start: geometry.Pt(1, 1), End: geometry.Pt(6, 1)},
		},
	}
	m.Commit(route, 0.05)
	m.Reserve("W1", geometry.Seg(3, 0, 3, 5), drainMeta("r2"))

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	if got := m.RouteIDs(); len(got) != 2 || got[0] != "r1" || got[1] != "r2" {
		t.Errorf("RouteIDs = %v", got)
	}
	if n := m.Release("r1"); n != 2 {
		t.Errorf("Release removed %d, want 2", n)
	}
	if got := m.Domains(); len(got) != 1 || got[0] != "W1" {
		t.Errorf("Domains after release = %v, want [W1]", got)
	}
	if ok, _ := m.IsAvailable("F1", geometry.Seg(1, 1, 6, 1), 0.1, 0.05); !ok {
		t.Error("released space should be available again")
	}
}

func TestOccupancyMap_PartitionMerge(t *testing.T) {
	m := NewOccupancyMap(Exemptions{})
	m.Reserve("L1-W1", geometry.Seg(0, 0, 0, 5), drainMeta("r1"))
	m.Reserve("L2-W1", geometry.Seg(0, 0, 0, 5), drainMeta("r2"))

	p1 := m.Partition([]string{"L1-W1"})
	p2 := m.Partition([]string{"L2-W1"})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); p1.Reserve("L1-W1", geometry.Seg(2, 0, 2, 5), drainMeta("r3")) }()
	go func() { defer wg.Done(); p2.Reserve("L2-W1", geometry.Seg(2, 0, 2, 5), drainMeta("r4")) }()
	wg.Wait()

	if m.Len() != 2 {
		t.Fatalf("partitions must not write through, Len = %d", m.Len())
	}
	if err := m.MergeAll(p1, p2); err != nil {
		t.Fatalf("MergeAll: %v", err)
	}
	if m.Len() != 4 {
		t.Errorf("Len after merge = %d, want 4", m.Len())
	}

	overlap := m.Partition([]string{"L1-W1"})
	if err := m.MergeAll(p1, overlap); err == nil {
		t.Error("overlapping partitions should be rejected")
	}
}

func TestOccupancyMap_Conflicts(t *testing.T) {
	m := NewOccupancyMap(Exemptions{BundleTrades: map[core.SystemType]bool{core.SanitaryDrain: true}})
	m.Reserve("W1", geometry.Seg(2, 1, 2, 8), drainMeta("r1"))
	m.Reserve("W1", geometry.Seg(2.25, 1, 2.25, 8), drainMeta("r2"))
	wide := drainMeta("r3")
	wide.Clearance = 0.6
	m.Reserve("W1", geometry.Seg(3, 1, 3, 8), wide)
	m.Reserve("W2", geometry.Seg(2, 1, 2, 8), drainMeta("r4"))

	tests := []struct {
		name      string
		seg       geometry.Segment
		clearance float64
		want      []string
	}{
		// required separation = 0.1 + 0.05 = 0.15
		{"every overlapping reservation", geometry.Seg(2.12, 1, 2.12, 8), 0.05, []string{"r1", "r2"}},
		{"crossing all three", geometry.Seg(0, 4, 4, 4), 0.05, []string{"r1", "r2", "r3"}},
		// r3 needs 0.1 + 0.6 from its centre line
		{"larger existing clearance", geometry.Seg(3.6, 1, 3.6, 8), 0.05, []string{"r3"}},
		{"larger query clearance", geometry.Seg(1.7, 1, 1.7, 8), 0.5, []string{"r1", "r2"}},
		{"clear", geometry.Seg(1.5, 1, 1.5, 8), 0.05, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, c := range m.Conflicts("W1", tt.seg, 0.1, tt.clearance) {
				got = append(got, c.RouteID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Conflicts = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Conflicts = %v, want %v", got, tt.want)
				}
			}
		})
	}

	q := Query{DomainID: "W1", Segment: geometry.Seg(2.12, 1, 2.12, 8), Diameter: 0.1, Clearance: 0.05, Trade: core.SanitaryDrain}
	if c := m.Check(q); len(c) != 0 {
		t.Errorf("Check should honor the bundle exemption that Conflicts ignores, got %d conflicts", len(c))
	}
}

func TestOccupancyMap_ReleaseInCommitIn(t *testing.T) {
	m := NewOccupancyMap(Exemptions{})
	route := core.Route{
		ID: "r1", ConnectorID: "c1", TargetID: "R1", SystemType: core.SanitaryDrain, Diameter: 0.1,
		Segments: []core.RouteSegment{
			{DomainID: "F1", Start: geometry.Pt(1, 1), End: geometry.Pt(6, 1)},
			{DomainID: "F1", ToDomainID: "W1", Transition: true},
			{DomainID: "W1", Start: geometry.Pt(0, 5), End: geometry.Pt(0, 0)},
		},
	}
	m.Commit(route, 0.05)
	m.Reserve("F1", geometry.Seg(1, 3, 6, 3), drainMeta("r2"))

	if n := m.ReleaseIn("F1", "r1"); n != 1 {
		t.Fatalf("ReleaseIn removed %d, want 1", n)
	}
	if len(m.Segments("W1")) != 1 {
		t.Error("ReleaseIn must leave other domains alone")
	}
	if got := m.Segments("F1"); len(got) != 1 || got[0].RouteID != "r2" {
		t.Errorf("F1 after ReleaseIn = %+v", got)
	}

	route.Segments[0].End = geometry.Pt(8, 1)
	m.CommitIn("F1", route, 0.05)
	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	var found bool
	for _, s := range m.Segments("F1") {
		if s.RouteID == "r1" {
			found = s.Segment.B == geometry.Pt(8, 1) && s.Clearance == 0.05 && s.TargetID == "R1"
		}
	}
	if !found {
		t.Error("CommitIn should reserve the updated segment with the route's metadata")
	}
	if len(m.Segments("W1")) != 1 {
		t.Error("CommitIn must not duplicate reservations in other domains")
	}
}
