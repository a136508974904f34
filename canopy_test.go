package canopy

import (
	"math"
	"testing"
)

// --- Rect.Contains ---

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"left edge", 10, 40, true},
		{"right edge", 110, 40, true},
		{"top edge", 50, 20, true},
		{"bottom edge", 50, 70, true},
		{"outside left", 9, 40, false},
		{"outside right", 111, 40, false},
		{"outside above", 50, 19, false},
		{"outside below", 50, 71, false},
		{"far outside", 999, 999, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Contains(tt.x, tt.y)
			if got != tt.expect {
				t.Errorf("Rect%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

// --- Rect.Intersects ---

func TestRectIntersects(t *testing.T) {
	base := Rect{10, 10, 100, 100}
	tests := []struct {
		name   string
		other  Rect
		expect bool
	}{
		{"overlapping", Rect{50, 50, 100, 100}, true},
		{"fully contained", Rect{20, 20, 10, 10}, true},
		{"containing", Rect{0, 0, 200, 200}, true},
		{"adjacent right", Rect{110, 10, 50, 50}, true},
		{"adjacent bottom", Rect{10, 110, 50, 50}, true},
		{"adjacent left", Rect{-50, 10, 60, 50}, true},
		{"adjacent top", Rect{10, -50, 50, 60}, true},
		{"disjoint right", Rect{111, 10, 50, 50}, false},
		{"disjoint left", Rect{-100, 10, 50, 50}, false},
		{"disjoint above", Rect{10, -100, 50, 50}, false},
		{"disjoint below", Rect{10, 111, 50, 50}, false},
		{"same rect", Rect{10, 10, 100, 100}, true},
		{"zero-size at corner", Rect{110, 110, 0, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Intersects(tt.other)
			if got != tt.expect {
				t.Errorf("Rect%v.Intersects(Rect%v) = %v, want %v", base, tt.other, got, tt.expect)
			}
		})
	}
}

func TestRectTranslate(t *testing.T) {
	r := Rect{1, 2, 3, 4}.Translate(Vec2{10, 20})
	if r != (Rect{11, 22, 3, 4}) {
		t.Errorf("Translate = %v, want {11 22 3 4}", r)
	}
}

// --- Vec2 ---

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{3, 4}
	if got := a.Add(Vec2{1, 1}); got != (Vec2{4, 5}) {
		t.Errorf("Add = %v, want {4 5}", got)
	}
	if got := a.Sub(Vec2{1, 1}); got != (Vec2{2, 3}) {
		t.Errorf("Sub = %v, want {2 3}", got)
	}
	if got := a.Scale(2); got != (Vec2{6, 8}) {
		t.Errorf("Scale = %v, want {6 8}", got)
	}
	if got := a.Len(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Len = %v, want 5", got)
	}
}

// --- Kind / KindSet ---

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNode, "node"},
		{KindBody, "body"},
		{KindInputListener, "input_listener"},
		{KindUser, "user+0"},
		{KindUser + 3, "user+3"},
		{Kind(20), "kind(20)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindSet(t *testing.T) {
	s := Kinds(KindBody, KindShape)
	if !s.Has(KindBody) || !s.Has(KindShape) {
		t.Errorf("Kinds(body, shape) = %v, missing member", s)
	}
	if s.Has(KindSprite) {
		t.Error("set should not contain sprite")
	}
	if !s.Intersects(Kinds(KindShape, KindCamera)) {
		t.Error("sets sharing shape should intersect")
	}
	if s.Intersects(Kinds(KindCamera)) {
		t.Error("disjoint sets should not intersect")
	}
	if got := s.String(); got != "body|shape" {
		t.Errorf("String = %q, want %q", got, "body|shape")
	}
	if got := KindSet(0).String(); got != "none" {
		t.Errorf("empty String = %q, want none", got)
	}

	var each []Kind
	Kinds(KindUser+1, KindNode, KindAnimated).Each(func(k Kind) { each = append(each, k) })
	want := []Kind{KindNode, KindAnimated, KindUser + 1}
	if len(each) != len(want) {
		t.Fatalf("Each visited %v, want %v", each, want)
	}
	for i := range want {
		if each[i] != want[i] {
			t.Errorf("Each[%d] = %v, want %v", i, each[i], want[i])
		}
	}
}

func TestKindsOutOfRangePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for kind 64")
		}
	}()
	Kinds(Kind(64))
}

// --- Phase ---

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhasePhysicsPre, "physics_pre"},
		{PhasePhysicsPost, "physics_post"},
		{PhaseFramePre, "frame_pre"},
		{PhaseFramePost, "frame_post"},
		{Phase(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func BenchmarkRectContains(b *testing.B) {
	r := Rect{10, 20, 100, 50}
	b.ReportAllocs()
	for b.Loop() {
		_ = r.Contains(50, 40)
	}
}

func BenchmarkRectIntersects(b *testing.B) {
	r := Rect{10, 20, 100, 50}
	other := Rect{50, 40, 80, 60}
	b.ReportAllocs()
	for b.Loop() {
		_ = r.Intersects(other)
	}
}
