// Package store keeps named cells together so they can be inspected,
// snapshotted and written by name.
//
// Usage:
//
//	s := store.New(store.WithContext(ctx))
//
//	// Define creates and registers a cell in one step
//	count, _ := store.Define(s, "count", 0)
//
//	// Cells created elsewhere can be registered if they share the Context
//	title := observable.NewObservableValue("draft",
//	    observable.WithName("title"),
//	    observable.WithContext(ctx),
//	)
//	_ = s.Register(title)
//
//	// Type-erased access by name
//	_ = s.WriteJSON("count", []byte("3"))
//	values, _ := s.Snapshot()
//
// Writes made through the store run inside an action, so they are allowed
// under every enforce-actions mode and notify derivations once.
package store
