package observable

import "testing"

type tags struct {
	items []string
}

func (t tags) Clone() tags {
	return tags{items: append([]string(nil), t.items...)}
}

func TestSliceCloneEnhancer(t *testing.T) {
	input := []string{"a", "b"}
	v := NewObservableValue(input,
		WithEnhancer(SliceCloneEnhancer[[]string]()),
		WithContext(NewContext()),
	)

	input[0] = "mutated"
	if got := v.Get()[0]; got != "a" {
		t.Fatalf("stored slice shares memory with the caller: %q", got)
	}

	var nilSlice []string
	if err := v.Set(nilSlice); err != nil {
		t.Fatal(err)
	}
	if v.Get() != nil {
		t.Fatal("nil should stay nil")
	}
}

func TestMapCloneEnhancer(t *testing.T) {
	input := map[string]int{"a": 1}
	v := NewObservableValue(input,
		WithEnhancer(MapCloneEnhancer[map[string]int]()),
		WithContext(NewContext()),
	)

	input["a"] = 2
	if got := v.Get()["a"]; got != 1 {
		t.Fatalf("stored map shares memory with the caller: %d", got)
	}
}

func TestCloneEnhancer(t *testing.T) {
	input := tags{items: []string{"x"}}
	v := NewObservableValue(input,
		WithEnhancer(CloneEnhancer[tags]()),
		WithContext(NewContext()),
	)

	input.items[0] = "y"
	if got := v.Get().items[0]; got != "x" {
		t.Fatalf("stored value shares memory with the caller: %q", got)
	}
}

func TestStructuralEnhancerKeepsIdentity(t *testing.T) {
	v := NewObservableValue([]int{1, 2},
		WithEnhancer(StructuralEnhancer[[]int]()),
		WithContext(NewContext()),
	)
	rec := &changeRecorder[[]int]{}
	v.Observe(rec.listen, false)

	before := v.Get()
	if err := v.Set([]int{1, 2}); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 0 {
		t.Fatal("deeply equal write should keep the stored value")
	}
	if &v.Get()[0] != &before[0] {
		t.Fatal("stored slice identity changed")
	}

	if err := v.Set([]int{3}); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Fatalf("listener calls = %d, want 1", rec.count())
	}
}

func TestChainEnhancers(t *testing.T) {
	var calls []string
	record := func(label string, delta int) Enhancer[int] {
		return func(n, old int, _ string) int {
			calls = append(calls, label)
			if old != 0 && label == "first" {
				t.Errorf("first enhancer saw old value %d", old)
			}
			return n + delta
		}
	}

	e := ChainEnhancers(record("first", 1), record("second", 10))
	if got := e(1, 0, "n"); got != 12 {
		t.Fatalf("chain result = %d, want 12", got)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("calls = %v", calls)
	}

	if got := ChainEnhancers[int]()(5, 0, "n"); got != 5 {
		t.Fatalf("empty chain = %d, want 5", got)
	}
}
