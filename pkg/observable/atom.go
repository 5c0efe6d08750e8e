package observable

import "sync"

// Observable is anything a Context can record observations on and announce
// changes for. It is satisfied by *Atom and by every type embedding one.
type Observable interface {
	Name() string
	ID() uint64
	atom() *Atom
}

// Atom is the observation point shared by all observables. It keeps the set
// of derivations that read it and forwards observation and change reports
// to its Context.
type Atom struct {
	id   uint64
	name string
	ctx  *Context

	// observers are the derivations subscribed to this atom.
	observers []Derivation

	// mu protects observers.
	mu sync.RWMutex
}

// NewAtom creates an atom bound to ctx. A nil ctx binds to Default().
func NewAtom(ctx *Context, name string) *Atom {
	a := &Atom{}
	a.init(ctx, nextID(), name)
	return a
}

func (a *Atom) init(ctx *Context, id uint64, name string) {
	if ctx == nil {
		ctx = Default()
	}
	a.id = id
	a.name = name
	a.ctx = ctx
}

func (a *Atom) atom() *Atom { return a }

// Name returns the diagnostic name of the atom.
func (a *Atom) Name() string { return a.name }

// ID returns the unique identifier of the atom.
func (a *Atom) ID() uint64 { return a.id }

// Context returns the Context the atom reports to.
func (a *Atom) Context() *Context { return a.ctx }

// ReportObserved records that the atom was read by the current derivation.
func (a *Atom) ReportObserved() { a.ctx.ReportObserved(a) }

// ReportChanged announces that the atom changed.
func (a *Atom) ReportChanged() { a.ctx.ReportChanged(a) }

// IsObserved reports whether any derivation depends on the atom.
func (a *Atom) IsObserved() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.observers) > 0
}

// ObserverCount returns the number of subscribed derivations.
func (a *Atom) ObserverCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.observers)
}

// addObserver subscribes d, deduplicating by ID.
func (a *Atom) addObserver(d Derivation) {
	if d == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	id := d.ID()
	for _, existing := range a.observers {
		if existing.ID() == id {
			return
		}
	}
	a.observers = append(a.observers, d)
}

// RemoveObserver unsubscribes d. Derivations that do not track their sources
// call it when they stop depending on the atom.
func (a *Atom) RemoveObserver(d Derivation) {
	if d == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	id := d.ID()
	for i, existing := range a.observers {
		if existing.ID() == id {
			// Swap-remove: notification order between derivations is not defined.
			a.observers[i] = a.observers[len(a.observers)-1]
			a.observers = a.observers[:len(a.observers)-1]
			return
		}
	}
}

// observersSnapshot copies the observer list so notification runs without
// holding the lock.
func (a *Atom) observersSnapshot() []Derivation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.observers) == 0 {
		return nil
	}
	out := make([]Derivation, len(a.observers))
	copy(out, a.observers)
	return out
}
