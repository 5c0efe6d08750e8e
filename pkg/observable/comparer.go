package observable

import (
	"math"
	"reflect"
)

// Comparer reports whether two values are the same for change detection.
type Comparer[T any] func(a, b T) bool

// DefaultComparer treats values as equal when they are the same value or
// the same reference: basic values compare by value (NaN equals NaN, +0 and
// -0 differ), slices, maps, pointers, channels and funcs compare by
// identity, and arrays, structs and interfaces compare element-wise under
// the same rules.
func DefaultComparer[T any]() Comparer[T] {
	return defaultEquals[T]
}

// IdentityComparer compares with ==.
func IdentityComparer[T comparable]() Comparer[T] {
	return func(a, b T) bool {
		return a == b
	}
}

// StructuralComparer compares with reflect.DeepEqual.
func StructuralComparer[T any]() Comparer[T] {
	return func(a, b T) bool {
		return reflect.DeepEqual(a, b)
	}
}

func defaultEquals[T any](a, b T) bool {
	// Fast paths for the common basic types.
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && sameFloat(av, bv)
	}
	return sameValue(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
}

func sameFloat(x, y float64) bool {
	if x == y {
		return x != 0 || math.Signbit(x) == math.Signbit(y)
	}
	return x != x && y != y
}

func sameValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return sameFloat(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		ca, cb := a.Complex(), b.Complex()
		return sameFloat(real(ca), real(cb)) && sameFloat(imag(ca), imag(cb))
	case reflect.String:
		return a.String() == b.String()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Slice:
		return a.IsNil() == b.IsNil() && a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	}
	return false
}
