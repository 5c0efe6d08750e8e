package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/vango-dev/observable/pkg/observable"
)

var (
	// ErrNotFound is returned when no cell is registered under a name.
	ErrNotFound = errors.New("store: cell not found")

	// ErrDuplicate is returned when a name is already taken.
	ErrDuplicate = errors.New("store: cell already registered")

	// ErrForeignContext is returned when a cell is bound to a different
	// Context than the store.
	ErrForeignContext = errors.New("store: cell bound to another context")
)

// Store is a registry of named cells sharing one observable.Context.
//
// Cells are not safe for concurrent use, so every method that reads or
// writes cell values serializes on the store. Code running cells from
// several goroutines, such as HTTP handlers, goes through those methods or
// through Do.
type Store struct {
	ctx    *observable.Context
	logger *slog.Logger

	// mu protects cells.
	mu    sync.RWMutex
	cells map[string]observable.AnyValue

	// access serializes every read and write of cell values.
	access sync.Mutex

	// define serializes Define so a name is checked, built and registered
	// in one step.
	define sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithContext binds the store to ctx instead of a fresh Context.
func WithContext(ctx *observable.Context) Option {
	return func(s *Store) {
		s.ctx = ctx
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{cells: make(map[string]observable.AnyValue)}
	for _, opt := range opts {
		opt(s)
	}
	if s.ctx == nil {
		s.ctx = observable.NewContext()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "store")
	return s
}

// Context returns the Context shared by the store's cells.
func (s *Store) Context() *observable.Context {
	return s.ctx
}

// Register adds cell under its name.
func (s *Store) Register(cell observable.AnyValue) error {
	if cell.Context() != s.ctx {
		return fmt.Errorf("%w: %s", ErrForeignContext, cell.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := cell.Name()
	if _, ok := s.cells[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	s.cells[name] = cell
	s.logger.Debug("cell registered", "name", name, "type", cell.TypeName())
	return nil
}

// Define creates a cell named name on the store's Context and registers it.
//
// Example:
//
//	count, err := store.Define(s, "count", 0)
//	if err != nil {
//	    return err
//	}
//	count.Set(1)
func Define[T any](s *Store, name string, initial T, opts ...observable.Option) (*observable.ObservableValue[T], error) {
	s.define.Lock()
	defer s.define.Unlock()

	if _, ok := s.Lookup(name); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	opts = append(opts, observable.WithName(name), observable.WithContext(s.ctx))

	var cell *observable.ObservableValue[T]
	s.Do(func() {
		cell = observable.NewObservableValue(initial, opts...)
	})
	if err := s.Register(cell); err != nil {
		return nil, err
	}
	return cell, nil
}

// Lookup returns the cell registered under name.
func (s *Store) Lookup(name string) (observable.AnyValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.cells[name]
	return cell, ok
}

// Get returns the cell registered under name with its element type.
func Get[T any](s *Store, name string) (*observable.ObservableValue[T], error) {
	cell, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	typed, ok := cell.(*observable.ObservableValue[T])
	if !ok {
		return nil, &observable.TypeMismatchError{
			Name:     name,
			Expected: cell.TypeName(),
			Got:      reflect.TypeOf((*T)(nil)).Elem().String(),
		}
	}
	return typed, nil
}

// Names returns the registered names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.cells))
	for name := range s.cells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered cells.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Remove unregisters name. The cell itself keeps working.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cells[name]; !ok {
		return false
	}
	delete(s.cells, name)
	s.logger.Debug("cell removed", "name", name)
	return true
}

// Do runs fn with exclusive access to the store's cells. fn may use Lookup,
// Names and the cells directly, but must not call the other Store methods.
func (s *Store) Do(fn func()) {
	s.access.Lock()
	defer s.access.Unlock()
	fn()
}

func (s *Store) lookup(name string) (observable.AnyValue, error) {
	cell, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return cell, nil
}

// Read returns the current value of name.
func (s *Store) Read(name string) (any, error) {
	cell, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	var value any
	s.Do(func() {
		value = cell.GetAny()
	})
	return value, nil
}

// ReadJSON returns the JSON encoding of the current value of name.
func (s *Store) ReadJSON(name string) (json.RawMessage, error) {
	cell, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	s.Do(func() {
		data, err = cell.MarshalJSON()
	})
	return data, err
}

// Write sets name to value inside an action named "write <name>".
func (s *Store) Write(name string, value any) error {
	cell, err := s.lookup(name)
	if err != nil {
		return err
	}
	s.Do(func() {
		s.ctx.RunInAction("write "+name, func() {
			err = cell.SetAny(value)
		})
	})
	return err
}

// WriteJSON decodes data into name inside an action named "write <name>".
func (s *Store) WriteJSON(name string, data []byte) error {
	cell, err := s.lookup(name)
	if err != nil {
		return err
	}
	s.Do(func() {
		s.ctx.RunInAction("write "+name, func() {
			err = cell.UnmarshalJSON(data)
		})
	})
	return err
}

// Watch calls fn after every change of name. fn runs while the store is
// held, so it must not call Store methods that access cells.
func (s *Store) Watch(name string, fn func(observable.AnyChange), fireImmediately bool) (observable.Disposer, error) {
	cell, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	var dispose observable.Disposer
	s.Do(func() {
		dispose = cell.ObserveAny(fn, fireImmediately)
	})
	return func() { s.Do(dispose) }, nil
}

// Snapshot returns the JSON encoding of every cell, keyed by name.
func (s *Store) Snapshot() (map[string]json.RawMessage, error) {
	names := s.Names()
	out := make(map[string]json.RawMessage, len(names))

	var err error
	s.Do(func() {
		for _, name := range names {
			cell, ok := s.Lookup(name)
			if !ok {
				continue
			}
			var data []byte
			data, err = cell.MarshalJSON()
			if err != nil {
				err = fmt.Errorf("store: encode %q: %w", name, err)
				return
			}
			out[name] = data
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Restore writes every value in values to the cell of the same name, in
// one action named "restore". Values for unknown cells and values that fail
// to decode are reported in the returned error; the other cells are still
// written.
func (s *Store) Restore(values map[string]json.RawMessage) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	s.Do(func() {
		s.ctx.RunInAction("restore", func() {
			for _, name := range names {
				cell, ok := s.Lookup(name)
				if !ok {
					errs = append(errs, fmt.Errorf("%w: %s", ErrNotFound, name))
					continue
				}
				if err := cell.UnmarshalJSON(values[name]); err != nil {
					errs = append(errs, err)
				}
			}
		})
	})
	if len(errs) > 0 {
		s.logger.Warn("restore incomplete", "errors", len(errs))
	}
	return errors.Join(errs...)
}
