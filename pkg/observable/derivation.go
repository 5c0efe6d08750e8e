package observable

// Derivation is anything that can depend on observables and be told that
// one of them changed. Reactions implement it; so can external schedulers
// that drive their own re-evaluation.
type Derivation interface {
	// MarkDirty notifies the derivation that one of its dependencies changed.
	// While a batch is open the call is deferred until the outermost batch
	// ends, and each derivation is marked at most once per batch.
	MarkDirty()

	// ID returns a unique identifier used for deduplication.
	ID() uint64
}

// sourceTracker is implemented by derivations that want to know which atoms
// they observed, so they can unsubscribe when they re-run or are disposed.
type sourceTracker interface {
	addSource(a *Atom)
}

// Disposer removes a registration. Calling it more than once is a no-op.
type Disposer func()
