package errors

import (
	stderrors "errors"
	"syscall"

	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

// Classify wraps err in the registered Error that best describes it.
// Errors that are already an *Error are returned unchanged; unrecognized
// errors get fallback.
func Classify(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	var mismatch *observable.TypeMismatchError
	switch {
	case stderrors.Is(err, observable.ErrModificationNotAllowed):
		return New("E200").Wrap(err).
			WithSuggestion("Wrap the write in ctx.RunInAction, or lower reactivity.enforceActions.")
	case stderrors.Is(err, store.ErrNotFound):
		return New("E201").Wrap(err)
	case stderrors.As(err, &mismatch):
		return New("E202").Wrap(err)
	case stderrors.Is(err, snapshot.ErrNotFound):
		return New("E300").Wrap(err).
			WithSuggestion("Run `observable snapshot list` to see the stored keys.")
	case stderrors.Is(err, snapshot.ErrVersion):
		return New("E301").Wrap(err)
	case stderrors.Is(err, syscall.EADDRINUSE):
		return New("E400").Wrap(err).
			WithSuggestion("Pick another port with --port or devtools.port.")
	}
	return New(fallback).Wrap(err)
}
