package observable

import "sync"

// EnforceActions controls when writes must happen inside RunInAction.
type EnforceActions int

const (
	// EnforceNever allows writes anywhere except inside ReadOnly, where
	// writes to observed cells are rejected.
	EnforceNever EnforceActions = iota

	// EnforceObserved rejects writes to observed cells outside actions.
	EnforceObserved

	// EnforceAlways rejects every write outside actions.
	EnforceAlways
)

// String returns the configuration name of the mode.
func (e EnforceActions) String() string {
	switch e {
	case EnforceNever:
		return "never"
	case EnforceObserved:
		return "observed"
	case EnforceAlways:
		return "always"
	default:
		return "unknown"
	}
}

// ParseEnforceActions converts a configuration name into a mode.
func ParseEnforceActions(s string) (EnforceActions, bool) {
	switch s {
	case "", "never":
		return EnforceNever, true
	case "observed":
		return EnforceObserved, true
	case "always":
		return EnforceAlways, true
	default:
		return EnforceNever, false
	}
}

// Context holds the reactive state shared by a group of observables: the
// derivation currently tracking reads, the batch depth and its queued
// notifications, the mutation policy and the registered spies.
//
// A Context is not safe for concurrent use. Cells bound to the same Context
// must be used from one goroutine at a time.
type Context struct {
	// observer is what is currently tracking dependencies.
	// nil means reads don't create subscriptions.
	observer Derivation

	// batchDepth tracks nested Batch calls.
	batchDepth int

	// pending accumulates derivations to mark dirty when the batch ends.
	pending []Derivation

	// allowStateChanges is true outside ReadOnly when actions are not
	// enforced, and true inside RunInAction.
	allowStateChanges bool

	enforce EnforceActions

	spies    []Spy
	spyStack []SpyEvent
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithEnforceActions sets the mutation policy.
func WithEnforceActions(mode EnforceActions) ContextOption {
	return func(c *Context) {
		c.enforce = mode
	}
}

// WithSpy registers spies on the new Context.
func WithSpy(spies ...Spy) ContextOption {
	return func(c *Context) {
		for _, s := range spies {
			c.AddSpy(s)
		}
	}
}

// NewContext creates an isolated reactive context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{}
	for _, opt := range opts {
		opt(c)
	}
	c.allowStateChanges = c.enforce == EnforceNever
	return c
}

var (
	defaultCtx     *Context
	defaultCtxOnce sync.Once
)

// Default returns the process Context used by cells created without
// WithContext.
func Default() *Context {
	defaultCtxOnce.Do(func() {
		defaultCtx = NewContext()
	})
	return defaultCtx
}

// EnforceActions returns the configured mutation policy.
func (c *Context) EnforceActions() EnforceActions {
	return c.enforce
}

// ReportObserved subscribes the current derivation, if any, to o.
func (c *Context) ReportObserved(o Observable) {
	d := c.observer
	if d == nil {
		return
	}
	a := o.atom()
	a.addObserver(d)
	if t, ok := d.(sourceTracker); ok {
		t.addSource(a)
	}
}

// ReportChanged marks every derivation observing o as dirty, or queues them
// until the outermost batch ends.
func (c *Context) ReportChanged(o Observable) {
	observers := o.atom().observersSnapshot()
	if len(observers) == 0 {
		return
	}
	if c.batchDepth > 0 {
		c.pending = append(c.pending, observers...)
		return
	}
	for _, d := range observers {
		d.MarkDirty()
	}
}

// CheckModificationAllowed returns a *ModificationError when o may not be
// written in the current state.
func (c *Context) CheckModificationAllowed(o Observable) error {
	if c.allowStateChanges {
		return nil
	}
	observed := o.atom().IsObserved()
	if !observed && c.enforce != EnforceAlways {
		return nil
	}
	reason := "observed state may not be changed here"
	if c.enforce != EnforceNever {
		reason = "actions are enforced; wrap the write in RunInAction"
	}
	return &ModificationError{Name: o.Name(), Reason: reason}
}

// IsModificationAllowed is the boolean form of CheckModificationAllowed.
func (c *Context) IsModificationAllowed(o Observable) bool {
	return c.CheckModificationAllowed(o) == nil
}

// Track runs fn with d as the current derivation, so every observable read
// inside fn subscribes d.
func (c *Context) Track(d Derivation, fn func()) {
	old := c.observer
	c.observer = d
	defer func() { c.observer = old }()
	fn()
}

// Untracked runs fn without recording reads as dependencies.
func (c *Context) Untracked(fn func()) {
	old := c.untrackedStart()
	defer c.untrackedEnd(old)
	fn()
}

func (c *Context) untrackedStart() Derivation {
	old := c.observer
	c.observer = nil
	return old
}

func (c *Context) untrackedEnd(old Derivation) {
	c.observer = old
}

// Batch groups change announcements. Derivations affected by writes inside
// fn are marked dirty once, when the outermost batch completes.
func (c *Context) Batch(fn func()) {
	c.startBatch()
	defer c.endBatch()
	fn()
}

func (c *Context) startBatch() {
	c.batchDepth++
}

func (c *Context) endBatch() {
	c.batchDepth--
	if c.batchDepth == 0 {
		c.processPending()
	}
}

// processPending deduplicates and notifies all pending derivations.
func (c *Context) processPending() {
	updates := c.pending
	c.pending = nil
	if len(updates) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(updates))
	for _, d := range updates {
		id := d.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		d.MarkDirty()
	}
}

// RunInAction runs fn as a named action: writes are allowed, reads are not
// tracked and notifications are batched until fn returns.
func (c *Context) RunInAction(name string, fn func()) {
	if c.IsSpyEnabled() {
		c.SpyReportStart(SpyEvent{Type: SpyAction, Name: name})
		defer c.SpyReportEnd()
	}

	prevObserver := c.untrackedStart()
	c.startBatch()
	prevAllow := c.allowStateChanges
	c.allowStateChanges = true
	defer func() {
		c.allowStateChanges = prevAllow
		c.endBatch()
		c.untrackedEnd(prevObserver)
	}()

	fn()
}

// ReadOnly runs fn with writes to observed cells forbidden.
func (c *Context) ReadOnly(fn func()) {
	prev := c.allowStateChanges
	c.allowStateChanges = false
	defer func() { c.allowStateChanges = prev }()
	fn()
}
