package observable

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// ObservableValue is a reactive cell holding a single value.
//
// Reading it with Get during Context.Track subscribes the tracking
// derivation. Writing it with Set runs the change pipeline: policy check,
// interceptors, enhancer, equality check, commit, change announcement and
// listener dispatch, in that order and at most once per call.
//
// An ObservableValue is not safe for concurrent use; see Context.
type ObservableValue[T any] struct {
	Atom

	value    T
	enhancer Enhancer[T]
	dehancer Dehancer[T]
	equals   Comparer[T]

	interceptors handlers[Interceptor[T]]
	listeners    handlers[Listener[T]]

	hasUnreportedChange bool
}

// preparedValue is the outcome of the interception, transform and equality
// steps: either a value to commit, or unchanged.
type preparedValue[T any] struct {
	value   T
	changed bool
}

// NewObservableValue creates a cell holding enhancer(initial, zero, name).
// Construction is not a change: no interceptor or listener runs.
func NewObservableValue[T any](initial T, opts ...Option) *ObservableValue[T] {
	options := applyOptions(opts)

	id := nextID()
	name := options.name
	if name == "" {
		name = "ObservableValue@" + strconv.FormatUint(id, 10)
	}

	v := &ObservableValue[T]{
		enhancer: typedEnhancer[T](options),
		equals:   typedComparer[T](options),
	}
	v.Atom.init(options.ctx, id, name)

	var zero T
	v.value = v.enhancer(initial, zero, name)

	if !options.noSpy && v.ctx.IsSpyEnabled() {
		v.ctx.SpyReport(SpyEvent{
			Type:     SpyCreate,
			Name:     name,
			Object:   v,
			NewValue: fmt.Sprint(v.value),
		})
	}
	return v
}

// Get records the read with the Context and returns the stored value,
// passed through the dehancer when one is set.
func (v *ObservableValue[T]) Get() T {
	v.ReportObserved()
	return v.dehance(v.value)
}

func (v *ObservableValue[T]) dehance(value T) T {
	if d := v.dehancer; d != nil {
		return d(value)
	}
	return value
}

// Dehancer returns the read-side unwrap function, or nil.
func (v *ObservableValue[T]) Dehancer() Dehancer[T] {
	return v.dehancer
}

// SetDehancer replaces the read-side unwrap function. nil removes it.
func (v *ObservableValue[T]) SetDehancer(d Dehancer[T]) {
	v.dehancer = d
}

// Set writes newValue through the change pipeline. It returns a
// *ModificationError when the Context forbids the write; a vetoed or
// unchanged write returns nil. Panics raised by interceptors or listeners
// are not recovered.
func (v *ObservableValue[T]) Set(newValue T) error {
	oldValue := v.value
	prepared, err := v.prepareNewValue(newValue)
	if err != nil {
		return err
	}
	if !prepared.changed {
		return nil
	}

	if v.ctx.IsSpyEnabled() {
		v.ctx.SpyReportStart(SpyEvent{
			Type:     SpyUpdate,
			Name:     v.name,
			Object:   v,
			NewValue: prepared.value,
			OldValue: oldValue,
		})
		defer v.ctx.SpyReportEnd()
	}

	v.SetNewValue(prepared.value)
	return nil
}

func (v *ObservableValue[T]) prepareNewValue(newValue T) (preparedValue[T], error) {
	if err := v.ctx.CheckModificationAllowed(v); err != nil {
		return preparedValue[T]{}, err
	}

	if v.interceptors.len() > 0 {
		change, ok := v.interceptChange(ValueWillChange[T]{
			Object:   v,
			Type:     ChangeUpdate,
			NewValue: newValue,
		})
		if !ok {
			return preparedValue[T]{}, nil
		}
		newValue = change.NewValue
	}

	newValue = v.enhancer(newValue, v.value, v.name)
	if v.equals(v.value, newValue) {
		return preparedValue[T]{}, nil
	}
	return preparedValue[T]{value: newValue, changed: true}, nil
}

// interceptChange runs the interceptor chain untracked, stopping at the
// first veto.
func (v *ObservableValue[T]) interceptChange(change ValueWillChange[T]) (ValueWillChange[T], bool) {
	prev := v.ctx.untrackedStart()
	defer v.ctx.untrackedEnd(prev)

	for _, e := range v.interceptors.snapshot() {
		next, ok := e.fn(change)
		if !ok {
			return change, false
		}
		change = next
	}
	return change, true
}

// SetNewValue commits an already prepared value: it stores it, announces
// the change and notifies listeners. It skips the policy check, the
// interceptors, the enhancer and the equality check, so it is only meant for
// collaborators that performed those steps themselves.
func (v *ObservableValue[T]) SetNewValue(newValue T) {
	oldValue := v.value
	v.value = newValue
	v.ReportChanged()
	if v.listeners.len() > 0 {
		v.notifyListeners(ValueDidChange[T]{
			Object:      v,
			Type:        ChangeUpdate,
			NewValue:    newValue,
			OldValue:    oldValue,
			HasOldValue: true,
		})
	}
}

func (v *ObservableValue[T]) notifyListeners(change ValueDidChange[T]) {
	prev := v.ctx.untrackedStart()
	defer v.ctx.untrackedEnd(prev)

	for _, e := range v.listeners.snapshot() {
		e.fn(change)
	}
}

// Intercept registers handler for future writes. Interceptors run in
// registration order.
func (v *ObservableValue[T]) Intercept(handler Interceptor[T]) Disposer {
	return v.interceptors.add(handler)
}

// Observe registers listener for future changes. With fireImmediately the
// listener is first called once with the current value and HasOldValue
// false; that call is not a change.
func (v *ObservableValue[T]) Observe(listener Listener[T], fireImmediately bool) Disposer {
	if fireImmediately {
		listener(ValueDidChange[T]{
			Object:   v,
			Type:     ChangeUpdate,
			NewValue: v.value,
		})
	}
	return v.listeners.add(listener)
}

// ObserveAny is Observe with a type-erased change record.
func (v *ObservableValue[T]) ObserveAny(listener func(AnyChange), fireImmediately bool) Disposer {
	return v.Observe(func(change ValueDidChange[T]) {
		ac := AnyChange{
			Name:        v.name,
			Type:        change.Type,
			NewValue:    change.NewValue,
			HasOldValue: change.HasOldValue,
		}
		if change.HasOldValue {
			ac.OldValue = change.OldValue
		}
		listener(ac)
	}, fireImmediately)
}

// HasInterceptors reports whether any interceptor is registered.
func (v *ObservableValue[T]) HasInterceptors() bool {
	return v.interceptors.len() > 0
}

// HasListeners reports whether any listener is registered.
func (v *ObservableValue[T]) HasListeners() bool {
	return v.listeners.len() > 0
}

// HasUnreportedChange returns the flag kept for external collaborators.
func (v *ObservableValue[T]) HasUnreportedChange() bool {
	return v.hasUnreportedChange
}

// SetHasUnreportedChange sets the flag kept for external collaborators.
func (v *ObservableValue[T]) SetHasUnreportedChange(b bool) {
	v.hasUnreportedChange = b
}

// GetAny returns Get() as an interface value.
func (v *ObservableValue[T]) GetAny() any {
	return v.Get()
}

// SetAny sets the value from an interface value. A nil value sets the zero
// value when T is nilable. Other type mismatches return *TypeMismatchError.
func (v *ObservableValue[T]) SetAny(value any) error {
	typed, ok := value.(T)
	if !ok {
		if value != nil || !nilable[T]() {
			return &TypeMismatchError{
				Name:     v.name,
				Expected: typeName[T](),
				Got:      fmt.Sprintf("%T", value),
			}
		}
	}
	return v.Set(typed)
}

// TypeName returns the name of the element type.
func (v *ObservableValue[T]) TypeName() string {
	return typeName[T]()
}

func (v *ObservableValue[T]) isObservableValue() {}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func nilable[T any]() bool {
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return true
	}
	return false
}

// AnyValue is the type-erased view of an ObservableValue, used by code that
// manages cells of different element types together.
type AnyValue interface {
	Observable
	fmt.Stringer
	json.Marshaler
	json.Unmarshaler

	Context() *Context
	IsObserved() bool
	HasListeners() bool
	GetAny() any
	SetAny(value any) error
	ObserveAny(listener func(AnyChange), fireImmediately bool) Disposer
	TypeName() string
	Primitive() any

	isObservableValue()
}

var _ AnyValue = (*ObservableValue[int])(nil)

// IsObservableValue reports whether x is an ObservableValue of any element
// type, or a type embedding one.
func IsObservableValue(x any) bool {
	_, ok := x.(AnyValue)
	return ok
}
