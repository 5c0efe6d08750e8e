package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

func TestClientCells(t *testing.T) {
	s := store.New(store.WithLogger(testLogger()))
	store.Define(s, "count", 1)
	store.Define(s, "title", "draft")
	_, ts := newTestServer(t, Config{Store: s})
	c := NewClient(ts.URL + "/")
	ctx := context.Background()

	cells, err := c.Cells(ctx)
	if err != nil {
		t.Fatalf("Cells() error: %v", err)
	}
	if len(cells) != 2 || cells[0].Name != "count" {
		t.Fatalf("Cells() = %+v", cells)
	}

	info, err := c.Set(ctx, "count", json.RawMessage("4"))
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if string(info.Value) != "4" {
		t.Fatalf("Set() value = %s, want 4", info.Value)
	}

	info, err = c.Cell(ctx, "count")
	if err != nil || string(info.Value) != "4" {
		t.Fatalf("Cell() = %+v, %v", info, err)
	}

	_, err = c.Cell(ctx, "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("Cell(missing) error = %v, want a 404 APIError", err)
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatal("404 on /cells should unwrap to store.ErrNotFound")
	}

	_, err = c.Set(ctx, "count", json.RawMessage(`"four"`))
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("Set(wrong type) error = %v, want 400", err)
	}
}

func TestClientSnapshots(t *testing.T) {
	s := store.New(store.WithLogger(testLogger()))
	store.Define(s, "count", 1)
	_, ts := newTestServer(t, Config{Store: s, Snapshots: snapshot.NewMemoryBackend()})
	c := NewClient(ts.URL)
	ctx := context.Background()

	info, err := c.SaveSnapshot(ctx, "first")
	if err != nil || info.Key != "first" || info.Cells != 1 {
		t.Fatalf("SaveSnapshot() = %+v, %v", info, err)
	}

	s.Write("count", 9)
	if _, err := c.RestoreSnapshot(ctx, "first"); err != nil {
		t.Fatalf("RestoreSnapshot() error: %v", err)
	}
	if got, _ := s.Read("count"); got != 1 {
		t.Fatalf("count = %v, want 1", got)
	}

	keys, err := c.Snapshots(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("Snapshots() = %v, %v", keys, err)
	}

	if _, err := c.RestoreSnapshot(ctx, "none"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("RestoreSnapshot(none) error = %v, want snapshot.ErrNotFound", err)
	}

	doc, err := c.Snapshot(ctx, "first")
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if doc.Version != snapshot.FormatVersion || string(doc.Cells["count"]) != "1" {
		t.Fatalf("Snapshot() = %+v", doc)
	}

	if err := c.DeleteSnapshot(ctx, "first"); err != nil {
		t.Fatalf("DeleteSnapshot() error: %v", err)
	}
	if _, err := c.Snapshot(ctx, "first"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Snapshot() after delete error = %v, want snapshot.ErrNotFound", err)
	}
}

func TestClientWatch(t *testing.T) {
	s := store.New(store.WithLogger(testLogger()))
	store.Define(s, "count", 0)
	srv, ts := newTestServer(t, Config{Store: s})
	c := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan observable.AnyChange, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, "count", func(ch observable.AnyChange) {
			changes <- ch
		})
	}()

	first := <-changes
	if first.HasOldValue || first.NewValue != float64(0) {
		t.Fatalf("first change = %+v", first)
	}

	for srv.ClientCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := s.Write("count", 2); err != nil {
		t.Fatal(err)
	}
	second := <-changes
	if second.OldValue != float64(0) || second.NewValue != float64(2) {
		t.Fatalf("second change = %+v", second)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch() after cancel error = %v, want nil", err)
	}
}

func TestClientWatchMissing(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	err := NewClient(ts.URL).Watch(context.Background(), "nope", func(observable.AnyChange) {})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Watch(nope) error = %v, want store.ErrNotFound", err)
	}
}
