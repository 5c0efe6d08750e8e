package observable

import (
	"maps"
	"reflect"
	"slices"
)

// Enhancer normalizes a candidate value before a cell accepts it. It runs on
// construction (with the zero value as oldValue) and on every write, before
// the equality check.
type Enhancer[T any] func(newValue, oldValue T, name string) T

// Dehancer unwraps a stored value on every read.
type Dehancer[T any] func(value T) T

// ReferenceEnhancer stores values as given.
func ReferenceEnhancer[T any]() Enhancer[T] {
	return func(newValue, _ T, _ string) T {
		return newValue
	}
}

// StructuralEnhancer keeps the current value when the candidate is deeply
// equal to it, so unchanged structures keep their identity.
func StructuralEnhancer[T any]() Enhancer[T] {
	return func(newValue, oldValue T, _ string) T {
		if reflect.DeepEqual(newValue, oldValue) {
			return oldValue
		}
		return newValue
	}
}

// Cloner is implemented by values that can produce an independent copy.
type Cloner[T any] interface {
	Clone() T
}

// CloneEnhancer stores a copy of every value, so callers that keep mutating
// what they passed to Set are not observed by the cell.
func CloneEnhancer[T Cloner[T]]() Enhancer[T] {
	return func(newValue, _ T, _ string) T {
		return newValue.Clone()
	}
}

// SliceCloneEnhancer stores a shallow copy of every slice. Nil stays nil.
func SliceCloneEnhancer[S ~[]E, E any]() Enhancer[S] {
	return func(newValue, _ S, _ string) S {
		return slices.Clone(newValue)
	}
}

// MapCloneEnhancer stores a shallow copy of every map. Nil stays nil.
func MapCloneEnhancer[M ~map[K]V, K comparable, V any]() Enhancer[M] {
	return func(newValue, _ M, _ string) M {
		return maps.Clone(newValue)
	}
}

// ChainEnhancers applies enhancers left to right, each receiving the output
// of the previous one as its candidate.
func ChainEnhancers[T any](enhancers ...Enhancer[T]) Enhancer[T] {
	return func(newValue, oldValue T, name string) T {
		for _, e := range enhancers {
			newValue = e(newValue, oldValue, name)
		}
		return newValue
	}
}
