// Package field persists state in a field of the target itself, read and
// written through accessor functions. It suits targets that are saved
// elsewhere, or never.
package field

import (
	"context"
	"errors"
	"fmt"

	"github.com/anggasct/transit"
)

// ErrInvalid is wrapped by the error a strict write returns when the
// validator rejects the target
var ErrInvalid = errors.New("target is invalid")

// Validator checks the target before its state field is written. A non-nil
// error rejects the write.
type Validator[T any] func(ctx context.Context, target T, to transit.State) error

// Accessor reads and writes the state field of T
type Accessor[T any] struct {
	get       func(T) string
	set       func(T, string)
	validator Validator[T]
}

// Option configures an Accessor
type Option[T any] func(*Accessor[T])

// WithValidator rejects writes the validator refuses. The plain setter turns
// a rejection into a halt; the strict setter returns it as an error.
func WithValidator[T any](v Validator[T]) Option[T] {
	return func(a *Accessor[T]) { a.validator = v }
}

// New creates an accessor. set usually requires T to be a pointer type.
func New[T any](get func(T) string, set func(T, string), opts ...Option[T]) *Accessor[T] {
	a := &Accessor[T]{get: get, set: set}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetState reads the field
func (a *Accessor[T]) GetState(_ context.Context, target T) (string, error) {
	return a.get(target), nil
}

// InitializeState writes the initial state into an empty field
func (a *Accessor[T]) InitializeState(_ context.Context, target T, initial transit.State) error {
	if a.get(target) == "" {
		a.set(target, initial.Name)
	}
	return nil
}

// SetState writes t.To() and reports false when the validator rejects it
func (a *Accessor[T]) SetState(ctx context.Context, target T, t *transit.Transition[T]) (bool, error) {
	if a.validator != nil && a.validator(ctx, target, t.To()) != nil {
		return false, nil
	}
	a.set(target, t.To().Name)
	return true, nil
}

// SetStateStrict writes t.To() and returns the validator's rejection
func (a *Accessor[T]) SetStateStrict(ctx context.Context, target T, t *transit.Transition[T]) error {
	if a.validator != nil {
		if err := a.validator(ctx, target, t.To()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	a.set(target, t.To().Name)
	return nil
}

// RevertState writes t.From() back into the field
func (a *Accessor[T]) RevertState(_ context.Context, target T, t *transit.Transition[T]) {
	a.set(target, t.From().Name)
}
