package observable

import "fmt"

// maxReactionIterations bounds how often a reaction may invalidate itself
// during a single Run before it is considered divergent.
const maxReactionIterations = 100

// Reaction re-runs a function whenever an observable it read changes.
// It is the minimal derivation needed to consume cells; it does not cache a
// value and has no scheduling beyond the Context's batching.
type Reaction struct {
	id   uint64
	name string
	ctx  *Context
	fn   func()

	sources []*Atom

	running  bool
	rerun    bool
	disposed bool
	runs     int
}

// NewReaction creates a reaction bound to ctx. It does not run until Run is
// called.
func NewReaction(ctx *Context, name string, fn func()) *Reaction {
	if ctx == nil {
		ctx = Default()
	}
	id := nextID()
	if name == "" {
		name = fmt.Sprintf("Reaction@%d", id)
	}
	return &Reaction{id: id, name: name, ctx: ctx, fn: fn}
}

// ID implements Derivation.
func (r *Reaction) ID() uint64 { return r.id }

// Name returns the reaction's diagnostic name.
func (r *Reaction) Name() string { return r.name }

// Runs returns how many times the body has executed.
func (r *Reaction) Runs() int { return r.runs }

// IsDisposed reports whether Dispose was called.
func (r *Reaction) IsDisposed() bool { return r.disposed }

// MarkDirty implements Derivation by re-running the body.
func (r *Reaction) MarkDirty() {
	r.Run()
}

// Run executes the body, re-subscribing to exactly the observables it reads.
// A reaction invalidated by its own body runs again once the body returns.
func (r *Reaction) Run() {
	if r.disposed {
		return
	}
	if r.running {
		r.rerun = true
		return
	}

	for i := 0; ; i++ {
		if i >= maxReactionIterations {
			panic(fmt.Sprintf("observable: reaction %q doesn't converge to a stable state after %d iterations", r.name, maxReactionIterations))
		}
		r.rerun = false
		r.track()
		if !r.rerun || r.disposed {
			return
		}
	}
}

func (r *Reaction) track() {
	r.running = true
	defer func() { r.running = false }()

	if r.ctx.IsSpyEnabled() {
		r.ctx.SpyReportStart(SpyEvent{Type: SpyReaction, Name: r.name, Object: r})
		defer r.ctx.SpyReportEnd()
	}

	r.clearSources()
	r.runs++
	r.ctx.Track(r, r.fn)
}

func (r *Reaction) addSource(a *Atom) {
	for _, s := range r.sources {
		if s == a {
			return
		}
	}
	r.sources = append(r.sources, a)
}

func (r *Reaction) clearSources() {
	for _, s := range r.sources {
		s.RemoveObserver(r)
	}
	r.sources = r.sources[:0]
}

// Dispose unsubscribes the reaction from everything it observed.
func (r *Reaction) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.clearSources()
	r.sources = nil
}
