package observable

// ChangeType names the kind of change carried by a change record.
type ChangeType string

// ChangeUpdate is the only change kind a single-value cell produces.
const ChangeUpdate ChangeType = "update"

// ValueWillChange is the record interceptors receive before a write applies.
type ValueWillChange[T any] struct {
	Object   *ObservableValue[T]
	Type     ChangeType
	NewValue T
}

// ValueDidChange is the record listeners receive after a write applied.
// HasOldValue is false only for the bootstrap call made by Observe with
// fireImmediately.
type ValueDidChange[T any] struct {
	Object      *ObservableValue[T]
	Type        ChangeType
	NewValue    T
	OldValue    T
	HasOldValue bool
}

// Interceptor inspects a pending change. It returns the (possibly modified)
// change and true to let it proceed, or false to veto it. A veto is not an
// error: Set returns nil and nothing else happens.
type Interceptor[T any] func(change ValueWillChange[T]) (ValueWillChange[T], bool)

// Listener is called after a change has been committed.
type Listener[T any] func(change ValueDidChange[T])

// AnyChange is the type-erased form of ValueDidChange delivered by
// ObserveAny.
type AnyChange struct {
	Name        string     `json:"name"`
	Type        ChangeType `json:"type"`
	NewValue    any        `json:"newValue"`
	OldValue    any        `json:"oldValue,omitempty"`
	HasOldValue bool       `json:"hasOldValue"`
}
