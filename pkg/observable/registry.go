package observable

import "sync"

// handlerEntry wraps a registered function so it can be removed by identity.
type handlerEntry[F any] struct {
	fn F
}

// handlers is an ordered registry of interceptors or listeners.
//
// Removal replaces the slice instead of editing it in place, so a snapshot
// taken when dispatch starts is never modified: every handler registered
// before dispatch began runs exactly once, and handlers added during
// dispatch wait for the next one.
type handlers[F any] struct {
	entries []*handlerEntry[F]
	mu      sync.Mutex
}

// add appends fn and returns a Disposer that removes it.
func (h *handlers[F]) add(fn F) Disposer {
	e := &handlerEntry[F]{fn: fn}

	h.mu.Lock()
	h.entries = append(h.entries[:len(h.entries):len(h.entries)], e)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(e) })
	}
}

func (h *handlers[F]) remove(e *handlerEntry[F]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, existing := range h.entries {
		if existing == e {
			next := make([]*handlerEntry[F], 0, len(h.entries)-1)
			next = append(next, h.entries[:i]...)
			h.entries = append(next, h.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns the handlers registered right now.
func (h *handlers[F]) snapshot() []*handlerEntry[F] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries
}

func (h *handlers[F]) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
