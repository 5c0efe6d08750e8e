// Package devtools serves an HTTP inspector for the cells of a store.Store.
//
// Cells can be listed, read and written as JSON, and watched over a
// WebSocket that streams every committed change:
//
//	srv := devtools.New(devtools.Config{
//	    Store:   cells,
//	    Metrics: promhttp.Handler(),
//	})
//	http.ListenAndServe("localhost:7070", srv.Handler())
//
// Writes go through the store, so they run inside an action and through the
// cell's interceptors. A vetoed write still answers 200 with the unchanged
// value; a write rejected by the Context's policy answers 409.
package devtools
