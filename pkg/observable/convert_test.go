package observable

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type celsius float64

type status int

func (s status) String() string {
	if s == 1 {
		return "active"
	}
	return "inactive"
}

func TestString(t *testing.T) {
	v := NewObservableValue(3, WithName("count"), WithContext(NewContext()))
	if got := v.String(); got != "count[3]" {
		t.Fatalf("String() = %q, want %q", got, "count[3]")
	}

	v.SetDehancer(func(x int) int { return -x })
	if got := v.String(); got != "count[-3]" {
		t.Fatalf("String() with dehancer = %q, want %q", got, "count[-3]")
	}
}

func TestStringIsTracked(t *testing.T) {
	ctx := NewContext()
	v := NewObservableValue("x", WithContext(ctx))
	d := newTestDerivation()

	ctx.Track(d, func() { _ = v.String() })
	if d.observations != 1 {
		t.Fatalf("observations = %d, want 1", d.observations)
	}
}

func TestPrimitive(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"int", 7, int64(7)},
		{"uint8", uint8(3), uint64(3)},
		{"named float", celsius(21.5), 21.5},
		{"bool", true, true},
		{"string", "s", "s"},
		{"duration", 2 * time.Second, int64(2 * time.Second)},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewObservableValue(tt.value, WithContext(NewContext()))
			if got := v.Primitive(); got != tt.want {
				t.Fatalf("Primitive() = %#v, want %#v", got, tt.want)
			}
		})
	}

	// Named integer kinds convert by kind before Stringer is consulted.
	if got := NewObservableValue(status(1)).Primitive(); got != int64(1) {
		t.Fatalf("Primitive() of named int = %#v", got)
	}

	type point struct{ X, Y int }
	p := point{1, 2}
	if got := NewObservableValue(p).Primitive(); got != p {
		t.Fatalf("Primitive() of struct = %#v, want it unchanged", got)
	}
}

func TestPrimitiveStringer(t *testing.T) {
	type labelled struct{ status }
	v := NewObservableValue(labelled{status(1)}, WithContext(NewContext()))
	if got := v.Primitive(); got != "active" {
		t.Fatalf("Primitive() = %#v, want %q", got, "active")
	}
}

func TestMarshalJSON(t *testing.T) {
	type doc struct {
		Title *ObservableValue[string]   `json:"title"`
		Tags  *ObservableValue[[]string] `json:"tags"`
	}
	ctx := NewContext()
	d := doc{
		Title: NewObservableValue("hello", WithContext(ctx)),
		Tags:  NewObservableValue([]string{"a", "b"}, WithContext(ctx)),
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"title":"hello","tags":["a","b"]}`; got != want {
		t.Fatalf("json = %s, want %s", got, want)
	}
}

func TestUnmarshalJSONRunsPipeline(t *testing.T) {
	v := NewObservableValue(1, WithContext(NewContext()))
	v.Intercept(clampTo(10))
	rec := &changeRecorder[int]{}
	v.Observe(rec.listen, false)

	if err := json.Unmarshal([]byte("25"), v); err != nil {
		t.Fatal(err)
	}
	if v.Get() != 10 || rec.count() != 1 {
		t.Fatalf("value=%d listener=%d, want 10/1", v.Get(), rec.count())
	}

	if err := json.Unmarshal([]byte(`"text"`), v); err == nil {
		t.Fatal("decoding a string into an int cell should fail")
	}
}

func TestUnmarshalJSONPolicy(t *testing.T) {
	ctx := NewContext(WithEnforceActions(EnforceAlways))
	v := NewObservableValue(1, WithContext(ctx))

	err := json.Unmarshal([]byte("2"), v)
	if !errors.Is(err, ErrModificationNotAllowed) {
		t.Fatalf("err = %v, want ErrModificationNotAllowed", err)
	}
}

func TestUnmarshalJSONZeroCell(t *testing.T) {
	var v ObservableValue[int]
	if err := v.UnmarshalJSON([]byte("1")); err == nil {
		t.Fatal("decoding into a zero ObservableValue should fail")
	}
}
