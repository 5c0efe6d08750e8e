package observable

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Every conversion below reads through Get, so formatting or serializing a
// cell inside a tracked function subscribes to it like any other read.

// String formats the cell as "<name>[<value>]".
func (v *ObservableValue[T]) String() string {
	return fmt.Sprintf("%s[%v]", v.name, v.Get())
}

// Primitive returns the current value coerced to a basic Go value: booleans
// as bool, signed integers as int64, unsigned integers as uint64, floats as
// float64, complex numbers as complex128 and strings as string, including
// named types over those kinds. Other values implementing fmt.Stringer are
// returned as their string; everything else is returned unchanged.
func (v *ObservableValue[T]) Primitive() any {
	return toPrimitive(v.Get())
}

func toPrimitive(x any) any {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex()
	case reflect.String:
		return rv.String()
	}
	if s, ok := x.(fmt.Stringer); ok {
		return s.String()
	}
	return x
}

// MarshalJSON encodes the current value.
func (v *ObservableValue[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Get())
}

// UnmarshalJSON decodes data into a new value and writes it with Set, so
// decoding runs the full change pipeline.
func (v *ObservableValue[T]) UnmarshalJSON(data []byte) error {
	if v.ctx == nil {
		return errors.New("observable: decode into a cell not created with NewObservableValue")
	}
	var next T
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("observable: decode %q: %w", v.name, err)
	}
	return v.Set(next)
}
