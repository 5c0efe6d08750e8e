package observable

import (
	"math"
	"testing"
)

func TestDefaultComparer(t *testing.T) {
	negZero := math.Copysign(0, -1)
	nan := math.NaN()
	shared := []int{1, 2}
	m := map[string]int{"a": 1}
	p := &struct{ N int }{1}

	type pair struct {
		A int
		B []int
	}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 1, 1, true},
		{"different ints", 1, 2, false},
		{"different types", 1, int64(1), false},
		{"strings", "a", "a", true},
		{"nan", nan, nan, true},
		{"signed zero", 0.0, negZero, false},
		{"float32 nan", float32(nan), float32(nan), true},
		{"same slice", shared, shared, true},
		{"equal slices", []int{1, 2}, []int{1, 2}, false},
		{"resliced", shared, shared[:1], false},
		{"nil slices", []int(nil), []int(nil), true},
		{"same map", m, m, true},
		{"equal maps", map[string]int{"a": 1}, map[string]int{"a": 1}, false},
		{"same pointer", p, p, true},
		{"equal pointees", p, &struct{ N int }{1}, false},
		{"structs by field", pair{1, shared}, pair{1, shared}, true},
		{"struct with fresh slice", pair{1, shared}, pair{1, []int{1, 2}}, false},
		{"arrays", [2]float64{nan, 1}, [2]float64{nan, 1}, true},
		{"nil interfaces", nil, nil, true},
		{"nil vs value", nil, 0, false},
	}

	eq := DefaultComparer[any]()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eq(tt.a, tt.b); got != tt.want {
				t.Fatalf("DefaultComparer(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDefaultComparerTyped(t *testing.T) {
	if !DefaultComparer[float64]()(math.NaN(), math.NaN()) {
		t.Fatal("NaN should equal NaN")
	}
	if DefaultComparer[float64]()(0, math.Copysign(0, -1)) {
		t.Fatal("+0 and -0 should differ")
	}

	type key struct{ A, B string }
	if !DefaultComparer[key]()(key{"x", "y"}, key{"x", "y"}) {
		t.Fatal("equal structs of basic fields should compare equal")
	}

	var e1, e2 error
	if !DefaultComparer[error]()(e1, e2) {
		t.Fatal("nil errors should compare equal")
	}
}

func TestIdentityComparer(t *testing.T) {
	eq := IdentityComparer[float64]()
	if eq(math.NaN(), math.NaN()) {
		t.Fatal("IdentityComparer uses ==, NaN != NaN")
	}
	if !eq(0, math.Copysign(0, -1)) {
		t.Fatal("IdentityComparer uses ==, +0 == -0")
	}
}

func TestStructuralComparer(t *testing.T) {
	eq := StructuralComparer[[]int]()
	if !eq([]int{1, 2}, []int{1, 2}) {
		t.Fatal("deeply equal slices should compare equal")
	}
	if eq([]int{1}, []int{2}) {
		t.Fatal("different slices should not compare equal")
	}

	v := NewObservableValue([]int{1}, WithComparer(eq), WithContext(NewContext()))
	rec := &changeRecorder[[]int]{}
	v.Observe(rec.listen, false)
	if err := v.Set([]int{1}); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 0 {
		t.Fatal("structurally equal write should be a no-op")
	}
}
