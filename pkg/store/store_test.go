package store

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/vango-dev/observable/pkg/observable"
)

func TestDefineAndLookup(t *testing.T) {
	s := New()
	count, err := Define(s, "count", 1)
	if err != nil {
		t.Fatalf("Define() error: %v", err)
	}
	if count.Name() != "count" || count.Context() != s.Context() {
		t.Fatalf("cell name=%q, bound to store context=%v", count.Name(), count.Context() == s.Context())
	}

	cell, ok := s.Lookup("count")
	if !ok || cell != observable.AnyValue(count) {
		t.Fatal("Lookup should return the defined cell")
	}

	if _, err := Define(s, "count", 2); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Define error = %v, want ErrDuplicate", err)
	}
}

func TestGetTyped(t *testing.T) {
	s := New()
	if _, err := Define(s, "title", "draft"); err != nil {
		t.Fatal(err)
	}

	title, err := Get[string](s, "title")
	if err != nil || title.Get() != "draft" {
		t.Fatalf("Get[string] = %v, %v", title, err)
	}

	_, err = Get[int](s, "title")
	var mismatch *observable.TypeMismatchError
	if !errors.As(err, &mismatch) || mismatch.Expected != "string" || mismatch.Got != "int" {
		t.Fatalf("Get[int] error = %v", err)
	}

	if _, err := Get[int](s, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing error = %v, want ErrNotFound", err)
	}
}

func TestRegisterRejectsForeignContext(t *testing.T) {
	s := New()
	cell := observable.NewObservableValue(0, observable.WithName("x"), observable.WithContext(observable.NewContext()))
	if err := s.Register(cell); !errors.Is(err, ErrForeignContext) {
		t.Fatalf("Register error = %v, want ErrForeignContext", err)
	}
}

func TestNamesAndRemove(t *testing.T) {
	s := New()
	for _, name := range []string{"b", "c", "a"} {
		if _, err := Define(s, name, 0); err != nil {
			t.Fatal(err)
		}
	}

	names := s.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("Names() = %v, want [a b c]", names)
	}

	if !s.Remove("b") || s.Remove("b") {
		t.Fatal("Remove should succeed once")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}

func TestWriteRunsInAction(t *testing.T) {
	ctx := observable.NewContext(observable.WithEnforceActions(observable.EnforceAlways))
	s := New(WithContext(ctx))
	count, err := Define(s, "count", 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := count.Set(1); !errors.Is(err, observable.ErrModificationNotAllowed) {
		t.Fatalf("direct Set error = %v, want ErrModificationNotAllowed", err)
	}
	if err := s.Write("count", 2); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := s.WriteJSON("count", []byte("3")); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	got, err := s.Read("count")
	if err != nil || got != 3 {
		t.Fatalf("Read() = %v, %v, want 3", got, err)
	}
	raw, err := s.ReadJSON("count")
	if err != nil || string(raw) != "3" {
		t.Fatalf("ReadJSON() = %s, %v", raw, err)
	}

	var mismatch *observable.TypeMismatchError
	if err := s.Write("count", "three"); !errors.As(err, &mismatch) {
		t.Fatalf("Write(string) error = %v, want TypeMismatchError", err)
	}
	if err := s.Write("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Write(missing) error = %v, want ErrNotFound", err)
	}
}

func TestWatch(t *testing.T) {
	s := New()
	if _, err := Define(s, "count", 0); err != nil {
		t.Fatal(err)
	}

	var changes []observable.AnyChange
	dispose, err := s.Watch("count", func(c observable.AnyChange) {
		changes = append(changes, c)
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Write("count", 5); err != nil {
		t.Fatal(err)
	}
	dispose()
	if err := s.Write("count", 6); err != nil {
		t.Fatal(err)
	}

	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2 (bootstrap + write)", len(changes))
	}
	if changes[0].HasOldValue || changes[0].NewValue != 0 {
		t.Fatalf("bootstrap change = %+v", changes[0])
	}
	if c := changes[1]; c.Name != "count" || c.OldValue != 0 || c.NewValue != 5 {
		t.Fatalf("write change = %+v", c)
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := New()
	if _, err := Define(src, "count", 7); err != nil {
		t.Fatal(err)
	}
	if _, err := Define(src, "tags", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}

	values, err := src.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if string(values["count"]) != "7" || string(values["tags"]) != `["a","b"]` {
		t.Fatalf("Snapshot() = %s / %s", values["count"], values["tags"])
	}

	dst := New()
	count, _ := Define(dst, "count", 0)
	tags, _ := Define(dst, "tags", []string(nil))

	runs := 0
	r := observable.NewReaction(dst.Context(), "sum", func() {
		count.Get()
		tags.Get()
		runs++
	})
	r.Run()

	values["unknown"] = json.RawMessage("1")
	err = dst.Restore(values)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Restore() error = %v, want ErrNotFound for the unknown cell", err)
	}
	if count.Get() != 7 || len(tags.Get()) != 2 {
		t.Fatalf("restored count=%d tags=%v", count.Get(), tags.Get())
	}
	if runs != 2 {
		t.Fatalf("reaction runs = %d, want 2 (restore is one action)", runs)
	}
}

func TestConcurrentWrites(t *testing.T) {
	s := New()
	count, err := Define(s, "count", 0)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(func() {
				_ = count.Set(count.Get() + 1)
			})
		}()
	}
	wg.Wait()

	if got, _ := s.Read("count"); got != 50 {
		t.Fatalf("count = %v, want 50", got)
	}
}

type createCounter struct {
	mu      sync.Mutex
	creates int
}

func (c *createCounter) Report(ev observable.SpyEvent) {
	if ev.Type == observable.SpyCreate {
		c.mu.Lock()
		c.creates++
		c.mu.Unlock()
	}
}

func (c *createCounter) ReportStart(observable.SpyEvent) {}
func (c *createCounter) ReportEnd(observable.SpyEvent) {}

func TestConcurrentDefine(t *testing.T) {
	spy := &createCounter{}
	s := New(WithContext(observable.NewContext(observable.WithSpy(spy))))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := Define(s, "count", i)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicate):
				dups++
			default:
				t.Errorf("Define() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 1 || dups != 19 {
		t.Fatalf("Define results: %d ok, %d duplicates; want 1 and 19", ok, dups)
	}
	if spy.creates != 1 {
		t.Fatalf("create events = %d, want 1", spy.creates)
	}
}
