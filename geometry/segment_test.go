package geometry

import (
	"math"
	"testing"
)

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Segment
		want float64
	}{
		{"parallel vertical", Seg(2, 1, 2, 8), Seg(2.5, 1, 2.5, 8), 0.5},
		{"crossing", Seg(0, 4, 4, 4), Seg(2, 0, 2, 8), 0},
		{"touching endpoint", Seg(0, 0, 1, 0), Seg(1, 0, 1, 5), 0},
		{"collinear gap", Seg(0, 0, 1, 0), Seg(3, 0, 4, 0), 2},
		{"perpendicular offset", Seg(0, 0, 0, 2), Seg(1, 3, 5, 3), math.Hypot(1, 1)},
		{"point segment", Seg(1, 1, 1, 1), Seg(0, 0, 4, 0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SegmentDistance = %f, want %f", got, tt.want)
			}
			if back := SegmentDistance(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("distance not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestClosestPoints(t *testing.T) {
	d, onS, onO := ClosestPoints(Seg(0, 0, 0, 2), Seg(3, 1, 6, 1))
	if math.Abs(d-3) > 1e-9 {
		t.Fatalf("distance = %f, want 3", d)
	}
	if !SamePoint(onS, Pt(0, 1)) || !SamePoint(onO, Pt(3, 1)) {
		t.Errorf("closest points = %v %v, want (0,1) (3,1)", onS, onO)
	}
}

func TestCrossesInterior(t *testing.T) {
	box := NewBox(1.5, 3, 2.5, 5)

	tests := []struct {
		name string
		seg  Segment
		want bool
	}{
		{"through middle", Seg(2, 1, 2, 8), true},
		{"along left face", Seg(1.5, 2, 1.5, 6), false},
		{"along right face", Seg(2.5, 3, 2.5, 5), false},
		{"outside", Seg(0, 0, 1, 0), false},
		{"horizontal through", Seg(0, 4, 4, 4), true},
		{"touching corner", Seg(1, 2.5, 2, 3.5), true},
		{"corner only", Seg(1.5, 3, 1, 2), false},
		{"point inside", Seg(2, 4, 2, 4), true},
		{"point on boundary", Seg(1.5, 4, 1.5, 4), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CrossesInterior(tt.seg, box); got != tt.want {
				t.Errorf("CrossesInterior(%v) = %v, want %v", tt.seg, got, tt.want)
			}
		})
	}
}

func TestOrientation(t *testing.T) {
	if o := Seg(0, 0, 3, 0).Orientation(); o != Horizontal {
		t.Errorf("got %v, want horizontal", o)
	}
	if o := Seg(0, 0, 0, 3).Orientation(); o != Vertical {
		t.Errorf("got %v, want vertical", o)
	}
	if o := Seg(0, 0, 1, 1).Orientation(); o != Diagonal {
		t.Errorf("got %v, want diagonal", o)
	}
	if o := Seg(1, 1, 1, 1).Orientation(); o != Degenerate {
		t.Errorf("got %v, want point", o)
	}
}

func TestCollinear(t *testing.T) {
	if !Collinear(Pt(0, 0), Pt(0, 1), Pt(0, 3)) {
		t.Error("vertical points should be collinear")
	}
	if !Collinear(Pt(0, 0), Pt(1, 1), Pt(2, 2)) {
		t.Error("diagonal points should be collinear")
	}
	if Collinear(Pt(0, 0), Pt(1, 0), Pt(1, 1)) {
		t.Error("L-shape should not be collinear")
	}
}
