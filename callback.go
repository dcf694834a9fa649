package transit

import (
	"context"
	"slices"
)

// CallbackKind identifies where in the pipeline a callback runs
type CallbackKind int

const (
	// Before callbacks run ahead of the around chain
	Before CallbackKind = iota
	// After callbacks run once the new state is persisted
	After
	// Around callbacks wrap the body and the persistence call
	Around
	// Success callbacks run after the whole pipeline, outside any transaction
	Success
)

func (k CallbackKind) String() string {
	switch k {
	case Before:
		return "before"
	case After:
		return "after"
	case Around:
		return "around"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

// Callback runs at a fixed point of the pipeline
type Callback[T any] func(ctx context.Context, t *Transition[T]) error

// AroundCallback wraps the inner steps. It must call next to proceed; not
// calling it halts the transition without an error.
type AroundCallback[T any] func(ctx context.Context, t *Transition[T], next func() error) error

type edgeCallbacks[T any] struct {
	before  []Callback[T]
	after   []Callback[T]
	success []Callback[T]
	around  []AroundCallback[T]
}

// CallbackRegistry stores callbacks by exact edge and kind, in registration
// order. It never evaluates wildcards: specs are flattened on registration.
type CallbackRegistry[T any] struct {
	edges map[Edge]*edgeCallbacks[T]
	count int
}

func newCallbackRegistry[T any]() *CallbackRegistry[T] {
	return &CallbackRegistry[T]{edges: make(map[Edge]*edgeCallbacks[T])}
}

func (r *CallbackRegistry[T]) at(edge Edge) *edgeCallbacks[T] {
	ec, ok := r.edges[edge]
	if !ok {
		ec = &edgeCallbacks[T]{}
		r.edges[edge] = ec
	}
	return ec
}

// register appends cb to every edge for the given kind
func (r *CallbackRegistry[T]) register(edges []Edge, kind CallbackKind, cb Callback[T]) {
	for _, edge := range edges {
		ec := r.at(edge)
		switch kind {
		case Before:
			ec.before = append(ec.before, cb)
		case After:
			ec.after = append(ec.after, cb)
		case Success:
			ec.success = append(ec.success, cb)
		}
		r.count++
	}
}

func (r *CallbackRegistry[T]) registerAround(edges []Edge, cb AroundCallback[T]) {
	for _, edge := range edges {
		ec := r.at(edge)
		ec.around = append(ec.around, cb)
		r.count++
	}
}

// Resolve returns the callbacks of a kind for an edge. Around callbacks are
// not returned here; use Around.
func (r *CallbackRegistry[T]) Resolve(edge Edge, kind CallbackKind) []Callback[T] {
	ec, ok := r.edges[edge]
	if !ok {
		return nil
	}
	switch kind {
	case Before:
		return slices.Clone(ec.before)
	case After:
		return slices.Clone(ec.after)
	case Success:
		return slices.Clone(ec.success)
	default:
		return nil
	}
}

// Around returns the around callbacks for an edge, outermost first
func (r *CallbackRegistry[T]) Around(edge Edge) []AroundCallback[T] {
	ec, ok := r.edges[edge]
	if !ok {
		return nil
	}
	return slices.Clone(ec.around)
}

// Count returns the number of concrete entries
func (r *CallbackRegistry[T]) Count(edge Edge, kind CallbackKind) int {
	ec, ok := r.edges[edge]
	if !ok {
		return 0
	}
	switch kind {
	case Before:
		return len(ec.before)
	case After:
		return len(ec.after)
	case Success:
		return len(ec.success)
	case Around:
		return len(ec.around)
	default:
		return 0
	}
}

// Len returns the total number of concrete entries
func (r *CallbackRegistry[T]) Len() int {
	return r.count
}
