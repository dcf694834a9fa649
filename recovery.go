package transit

import (
	"context"
	"slices"
)

// ErrorCallback handles an error raised on an edge. Its return value becomes
// the pipeline result; returning an error re-raises.
type ErrorCallback[T any] func(ctx context.Context, t *Transition[T], err error) (any, error)

type errorCallbackEntry[T any] struct {
	kind     ErrorKind
	callback ErrorCallback[T]
}

// ErrorCallbackRegistry maps (edge, error kind) to recovery callbacks
type ErrorCallbackRegistry[T any] struct {
	edges map[Edge][]errorCallbackEntry[T]
}

func newErrorCallbackRegistry[T any]() *ErrorCallbackRegistry[T] {
	return &ErrorCallbackRegistry[T]{edges: make(map[Edge][]errorCallbackEntry[T])}
}

func (r *ErrorCallbackRegistry[T]) register(edges []Edge, kind ErrorKind, cb ErrorCallback[T]) {
	for _, edge := range edges {
		r.edges[edge] = append(r.edges[edge], errorCallbackEntry[T]{kind: kind, callback: cb})
	}
}

// Resolve returns the first registered callback for the edge whose kind
// matches err
func (r *ErrorCallbackRegistry[T]) Resolve(err error, edge Edge) (ErrorCallback[T], bool) {
	for _, entry := range r.edges[edge] {
		if entry.kind.Matches(err) {
			return entry.callback, true
		}
	}
	return nil, false
}

// Kinds returns the registered kinds for an edge in registration order
func (r *ErrorCallbackRegistry[T]) Kinds(edge Edge) []ErrorKind {
	entries := r.edges[edge]
	out := make([]ErrorKind, len(entries))
	for i, e := range entries {
		out[i] = e.kind
	}
	return out
}

// DefuseRegistry maps an edge to the error kinds that are swallowed on it
type DefuseRegistry struct {
	edges map[Edge][]ErrorKind
}

func newDefuseRegistry() *DefuseRegistry {
	return &DefuseRegistry{edges: make(map[Edge][]ErrorKind)}
}

func (r *DefuseRegistry) register(edges []Edge, kinds ...ErrorKind) {
	for _, edge := range edges {
		r.edges[edge] = append(r.edges[edge], kinds...)
	}
}

// Resolve returns the defused kinds for an edge; absence means none
func (r *DefuseRegistry) Resolve(edge Edge) []ErrorKind {
	return slices.Clone(r.edges[edge])
}

// Defuses reports whether err is swallowed on edge. Halts are control flow
// and never defused.
func (r *DefuseRegistry) Defuses(err error, edge Edge) bool {
	if err == nil || IsHalted(err) {
		return false
	}
	for _, kind := range r.edges[edge] {
		if kind.Matches(err) {
			return true
		}
	}
	return false
}
