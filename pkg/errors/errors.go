// Package errors defines the error taxonomy surfaced by the alert subsystem.
// Callers distinguish the kinds with errors.Is; the gateway maps each kind to
// an HTTP status.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that the referenced alert id does not exist:
	// already deleted, never existed, or mistyped.
	ErrNotFound = errors.New("alert not found")

	// ErrDuplicateID reports an insert with an id already present in the
	// store. It indicates a producer bug and is fatal only to that insert.
	ErrDuplicateID = errors.New("duplicate alert id")

	// ErrValidation reports malformed input rejected at the boundary.
	ErrValidation = errors.New("invalid input")

	// ErrStoreUnavailable reports that the persistence collaborator cannot
	// be reached. No automatic retry happens inside this subsystem.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}
