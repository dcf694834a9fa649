// Package transit provides a declarative finite state machine runtime that
// is embedded in host types. A machine declares states, events and the edges
// between them, plus before, after, around, success, error and defuse
// callbacks keyed by edge. Firing an event resolves the current state through
// a host-supplied strategy, runs the callback pipeline and persists the new
// state through the same strategy.
//
// Machines are immutable once built and safe for concurrent use on distinct
// targets. Every call owns its own Transition value.
package transit

// Self is the target resolver for hosts that are their own target
func Self[T any](target T) T {
	return target
}
