package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedDemo(t *testing.T) {
	ctx := observable.NewContext(observable.WithEnforceActions(observable.EnforceObserved))
	s := store.New(store.WithContext(ctx), store.WithLogger(discardLogger()))
	d, err := seedDemo(s, discardLogger())
	if err != nil {
		t.Fatalf("seedDemo() error: %v", err)
	}

	if got := s.Names(); len(got) != 4 {
		t.Fatalf("Names() = %v, want 4 cells", got)
	}
	if got := d.Summary(); got != "untitled: 0 [demo]" {
		t.Fatalf("Summary() = %q", got)
	}

	if err := s.Write("counter", 500); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Read("counter"); got != counterLimit {
		t.Fatalf("counter = %v, want clamped to %d", got, counterLimit)
	}

	if err := s.Write("title", "  list  "); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("title", "   "); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Read("title"); got != "list" {
		t.Fatalf("title = %q, want the trimmed value to survive the veto", got)
	}
	if got := d.Summary(); got != "list: 100 [demo]" {
		t.Fatalf("Summary() = %q", got)
	}

	var setErr error
	s.Do(func() { setErr = d.counter.Set(1) })
	if setErr == nil {
		t.Fatal("writing an observed cell outside an action should fail")
	}
}

func TestDemoTick(t *testing.T) {
	s := store.New(store.WithLogger(discardLogger()))
	d, err := seedDemo(s, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := d.tick(); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := s.Read("ticks"); got != 3 {
		t.Fatalf("ticks = %v, want 3", got)
	}
}

func TestNewApp(t *testing.T) {
	cfg := config.New()
	cfg.Log.Level = "error"
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error: %v", err)
	}
	defer a.Close(context.Background())

	if a.registry == nil {
		t.Fatal("metrics are enabled by default and need a registry")
	}
	if _, ok := a.backend.(*snapshot.MemoryBackend); !ok {
		t.Fatalf("backend = %T, want *snapshot.MemoryBackend", a.backend)
	}
	if a.ctx.EnforceActions() != observable.EnforceNever {
		t.Fatalf("EnforceActions() = %v", a.ctx.EnforceActions())
	}

	if _, err := store.Define(a.store, "count", 0); err != nil {
		t.Fatal(err)
	}
	if err := a.store.Write("count", 1); err != nil {
		t.Fatal(err)
	}
	families, err := a.registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "observable_updates_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("observable_updates_total not registered")
	}
}

func TestNewBackend(t *testing.T) {
	backend := newBackend(config.SnapshotConfig{
		Backend:  config.BackendS3,
		Bucket:   "state",
		Endpoint: "http://localhost:9000",
	})
	if _, ok := backend.(*snapshot.S3Backend); !ok {
		t.Fatalf("backend = %T, want *snapshot.S3Backend", backend)
	}

	client := newS3Client(config.SnapshotConfig{AccessKeyID: "id", SecretAccessKey: "secret"})
	if got := client.Options().Region; got != defaultRegion {
		t.Fatalf("Region = %q, want %q", got, defaultRegion)
	}
	creds, err := client.Options().Credentials.Retrieve(context.Background())
	if err != nil || creds.AccessKeyID != "id" {
		t.Fatalf("Credentials = %+v, %v", creds, err)
	}
}

func TestRunDemo(t *testing.T) {
	cfg := config.New()
	cfg.Reactivity.EnforceActions = observable.EnforceObserved.String()
	cfg.Log.Level = "error"
	cfg.Metrics.Enabled = false
	if err := runDemo(context.Background(), cfg); err != nil {
		t.Fatalf("runDemo() error: %v", err)
	}
}
