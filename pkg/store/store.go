// Package store holds what the persistence strategies under pkg/store share:
// the conflict error returned when a target moved on since its state was
// read, and the helpers that report it.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStateConflict is returned by strict setters when the stored state no
	// longer matches the transition's origin
	ErrStateConflict = errors.New("stored state does not match transition origin")

	// ErrNotFound is returned when the target has no stored record
	ErrNotFound = errors.New("state record not found")
)

// ConflictError describes a failed compare-and-set
type ConflictError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("state of %s is '%s', expected '%s'", e.Key, e.Actual, e.Expected)
}

func (e *ConflictError) Unwrap() error {
	return ErrStateConflict
}

// NewConflictError creates a ConflictError for key
func NewConflictError(key, expected, actual string) *ConflictError {
	return &ConflictError{Key: key, Expected: expected, Actual: actual}
}

// IsConflict reports whether err is a compare-and-set failure
func IsConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}
