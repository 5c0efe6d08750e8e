package observable

import (
	"errors"
	"fmt"
)

// ErrModificationNotAllowed is matched (via errors.Is) by every error Set
// returns when the Context's mutation policy rejects a write.
var ErrModificationNotAllowed = errors.New("observable: state modification not allowed")

// ModificationError identifies the cell whose write was rejected.
type ModificationError struct {
	// Name is the name of the cell that was being modified.
	Name string

	// Reason explains which policy rejected the write.
	Reason string
}

// Error implements the error interface.
func (e *ModificationError) Error() string {
	return fmt.Sprintf("observable: cannot modify %q: %s", e.Name, e.Reason)
}

// Is reports whether target is ErrModificationNotAllowed.
func (e *ModificationError) Is(target error) bool {
	return target == ErrModificationNotAllowed
}

// TypeMismatchError is returned by SetAny when the value does not have the
// cell's element type.
type TypeMismatchError struct {
	Name     string
	Expected string
	Got      string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("observable: %q holds %s, cannot set %s", e.Name, e.Expected, e.Got)
}
