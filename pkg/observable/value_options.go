package observable

import "fmt"

// Option is a functional option for NewObservableValue.
type Option func(*valueOptions)

// valueOptions holds construction settings. Enhancer and comparer are
// stored untyped so options need no type arguments at the call site; they
// are checked against the cell's element type on construction.
type valueOptions struct {
	name     string
	ctx      *Context
	enhancer any
	equals   any
	noSpy    bool
}

// WithName sets the diagnostic name. Without it the cell is named
// "ObservableValue@<id>".
func WithName(name string) Option {
	return func(o *valueOptions) {
		o.name = name
	}
}

// WithContext binds the cell to ctx instead of Default().
func WithContext(ctx *Context) Option {
	return func(o *valueOptions) {
		o.ctx = ctx
	}
}

// WithEnhancer sets the value transform. Its type must match the cell's.
//
// Example:
//
//	items := observable.NewObservableValue([]string{"a"},
//	    observable.WithEnhancer(observable.SliceCloneEnhancer[[]string]()),
//	)
func WithEnhancer[T any](e Enhancer[T]) Option {
	return func(o *valueOptions) {
		o.enhancer = e
	}
}

// WithComparer sets the equality used to detect no-op writes. Its type must
// match the cell's.
func WithComparer[T any](c Comparer[T]) Option {
	return func(o *valueOptions) {
		o.equals = c
	}
}

// WithoutSpy suppresses the create event. Use it for cells that are part of
// a larger structure reporting its own creation.
func WithoutSpy() Option {
	return func(o *valueOptions) {
		o.noSpy = true
	}
}

func applyOptions(opts []Option) valueOptions {
	var options valueOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func typedEnhancer[T any](o valueOptions) Enhancer[T] {
	if o.enhancer == nil {
		return ReferenceEnhancer[T]()
	}
	e, ok := o.enhancer.(Enhancer[T])
	if !ok {
		panic(fmt.Sprintf("observable: enhancer %T does not match value type %s", o.enhancer, typeName[T]()))
	}
	return e
}

func typedComparer[T any](o valueOptions) Comparer[T] {
	if o.equals == nil {
		return DefaultComparer[T]()
	}
	c, ok := o.equals.(Comparer[T])
	if !ok {
		panic(fmt.Sprintf("observable: comparer %T does not match value type %s", o.equals, typeName[T]()))
	}
	return c
}
