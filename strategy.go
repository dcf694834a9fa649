package transit

import "context"

// StateGetter reads the current state name from a target. An empty name means
// the state is unset; the machine then falls back to its initial state.
type StateGetter[T any] interface {
	GetState(ctx context.Context, target T) (string, error)
}

// StateSetter applies t.To() to the target and persists it. Returning false
// without an error halts the transition.
type StateSetter[T any] interface {
	SetState(ctx context.Context, target T, t *Transition[T]) (bool, error)
}

// Strategy is the usual pairing of a getter and a setter
type Strategy[T any] interface {
	StateGetter[T]
	StateSetter[T]
}

// StrictStateSetter is the raising persistence variant used by FireStrict.
// Strategies that do not implement it fall back to SetState.
type StrictStateSetter[T any] interface {
	SetStateStrict(ctx context.Context, target T, t *Transition[T]) error
}

// StateInitializer lets a getter lazily assign the initial state to a target
// whose state is unset
type StateInitializer[T any] interface {
	InitializeState(ctx context.Context, target T, initial State) error
}

// StateReverter resets the target's in-memory state to t.From() after an
// unhandled failure. It is cosmetic: the getter stays the source of truth.
type StateReverter[T any] interface {
	RevertState(ctx context.Context, target T, t *Transition[T])
}

// Transactor wraps the before, around and after stages in a unit of work.
// Returning fn's error must roll the unit back.
type Transactor[T any] interface {
	InTransaction(ctx context.Context, target T, fn func(ctx context.Context) error) error
}

// GetterFunc adapts a function to StateGetter
type GetterFunc[T any] func(ctx context.Context, target T) (string, error)

// GetState implements StateGetter
func (f GetterFunc[T]) GetState(ctx context.Context, target T) (string, error) {
	return f(ctx, target)
}

// SetterFunc adapts a function to StateSetter
type SetterFunc[T any] func(ctx context.Context, target T, t *Transition[T]) (bool, error)

// SetState implements StateSetter
func (f SetterFunc[T]) SetState(ctx context.Context, target T, t *Transition[T]) (bool, error) {
	return f(ctx, target, t)
}
