package transit

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Body is the optional work a transition performs before the new state is
// persisted
type Body[T any] func(ctx context.Context, t *Transition[T]) error

// TransitionSpec is the definition-time edge owned by one event
type TransitionSpec[T any] struct {
	Event string
	From  State
	To    State
	Body  Body[T]
}

// Edge returns the (from, to) pair of the spec
func (s TransitionSpec[T]) Edge() Edge {
	return Edge{From: s.From.Name, To: s.To.Name}
}

// TransitionStore keeps every edge of a machine and enforces that no two
// transitions share a (from, to) pair, whichever event defines them
type TransitionStore[T any] struct {
	machine string
	specs   []*TransitionSpec[T]
	byEdge  map[Edge]*TransitionSpec[T]
}

func newTransitionStore[T any](machine string) *TransitionStore[T] {
	return &TransitionStore[T]{
		machine: machine,
		byEdge:  make(map[Edge]*TransitionSpec[T]),
	}
}

// Add registers a spec
func (s *TransitionStore[T]) Add(spec *TransitionSpec[T]) error {
	edge := spec.Edge()
	if _, exists := s.byEdge[edge]; exists {
		return NewTransitionAlreadyRegisteredError(s.machine, edge.From, edge.To)
	}
	s.byEdge[edge] = spec
	s.specs = append(s.specs, spec)
	return nil
}

// Get returns the spec registered for an edge
func (s *TransitionStore[T]) Get(edge Edge) (TransitionSpec[T], bool) {
	spec, ok := s.byEdge[edge]
	if !ok {
		return TransitionSpec[T]{}, false
	}
	return *spec, true
}

// All returns every spec in registration order
func (s *TransitionStore[T]) All() []TransitionSpec[T] {
	out := make([]TransitionSpec[T], len(s.specs))
	for i, spec := range s.specs {
		out[i] = *spec
	}
	return out
}

// FromTo returns the specs whose origin is in froms and destination in tos
func (s *TransitionStore[T]) FromTo(froms, tos []string) []TransitionSpec[T] {
	var out []TransitionSpec[T]
	for _, spec := range s.specs {
		if slices.Contains(froms, spec.From.Name) && slices.Contains(tos, spec.To.Name) {
			out = append(out, *spec)
		}
	}
	return out
}

// Len returns the number of edges
func (s *TransitionStore[T]) Len() int {
	return len(s.specs)
}

// Phase is the position of one invocation in the execution pipeline
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseBeforeRun
	PhaseBodyRunning
	PhasePersisting
	PhaseAfterRun
	PhaseSucceeded
	PhaseHalted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseBeforeRun:
		return "before_run"
	case PhaseBodyRunning:
		return "body_running"
	case PhasePersisting:
		return "persisting"
	case PhaseAfterRun:
		return "after_run"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseHalted:
		return "halted"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition is the runtime value of one attempted edge traversal. It is
// created by Fire, owned by that single call and never stored on the machine.
type Transition[T any] struct {
	id        string
	machine   string
	event     string
	from      State
	to        State
	target    T
	args      []any
	options   map[string]any
	body      Body[T]
	result    any
	phase     Phase
	persisted bool
	strict    bool
	values    *Values
}

func newTransition[T any](machine string, spec TransitionSpec[T], target T, cfg fireConfig, strict bool) *Transition[T] {
	return &Transition[T]{
		id:      uuid.New().String(),
		machine: machine,
		event:   spec.Event,
		from:    spec.From,
		to:      spec.To,
		target:  target,
		args:    cfg.args,
		options: cfg.options,
		body:    spec.Body,
		phase:   PhaseCreated,
		strict:  strict,
		values:  NewValues(),
	}
}

// ID returns the unique identifier of this invocation
func (t *Transition[T]) ID() string { return t.id }

// Machine returns the name of the machine that owns the edge
func (t *Transition[T]) Machine() string { return t.machine }

// Event returns the event name
func (t *Transition[T]) Event() string { return t.event }

// From returns the origin state
func (t *Transition[T]) From() State { return t.from }

// To returns the destination state
func (t *Transition[T]) To() State { return t.to }

// Edge returns the (from, to) pair
func (t *Transition[T]) Edge() Edge { return Edge{From: t.from.Name, To: t.to.Name} }

// Target returns the object the state lives on
func (t *Transition[T]) Target() T { return t.target }

// Args returns the positional arguments passed to Fire
func (t *Transition[T]) Args() []any { return slices.Clone(t.args) }

// Arg returns the positional argument at index i
func (t *Transition[T]) Arg(i int) (any, bool) {
	if i < 0 || i >= len(t.args) {
		return nil, false
	}
	return t.args[i], true
}

// Options returns the named options passed to Fire
func (t *Transition[T]) Options() map[string]any { return maps.Clone(t.options) }

// Option returns a named option passed to Fire
func (t *Transition[T]) Option(key string) (any, bool) {
	v, ok := t.options[key]
	return v, ok
}

// Result returns the pipeline result captured so far
func (t *Transition[T]) Result() any { return t.result }

// Phase returns the current pipeline phase
func (t *Transition[T]) Phase() Phase { return t.phase }

// Persisted reports whether the persistence strategy completed
func (t *Transition[T]) Persisted() bool { return t.persisted }

// Strict reports whether the raising call variant is running
func (t *Transition[T]) Strict() bool { return t.strict }

// HasBody reports whether the edge defines a body
func (t *Transition[T]) HasBody() bool { return t.body != nil }

// Values returns the per-invocation data bag shared by callbacks
func (t *Transition[T]) Values() *Values { return t.values }

// Halt returns a halt signal bound to this transition
func (t *Transition[T]) Halt(reason string, options ...map[string]any) error {
	h := &TransitionHalted{
		Event:  t.event,
		From:   t.from.Name,
		To:     t.to.Name,
		Reason: reason,
	}
	for _, o := range options {
		if h.Options == nil {
			h.Options = make(map[string]any, len(o))
		}
		maps.Copy(h.Options, o)
	}
	return h
}

// info snapshots the transition for observers
func (t *Transition[T]) info() TransitionInfo {
	return TransitionInfo{
		Machine: t.machine,
		ID:      t.id,
		Event:   t.event,
		From:    t.from.Name,
		To:      t.to.Name,
		Phase:   t.phase,
		Strict:  t.strict,
	}
}

// FireOption configures a single event invocation
type FireOption func(*fireConfig)

type fireConfig struct {
	args    []any
	options map[string]any
}

// WithArgs passes positional arguments to the body and callbacks
func WithArgs(args ...any) FireOption {
	return func(c *fireConfig) {
		c.args = append(c.args, args...)
	}
}

// WithOption passes a named option to the body and callbacks
func WithOption(key string, value any) FireOption {
	return func(c *fireConfig) {
		if c.options == nil {
			c.options = make(map[string]any)
		}
		c.options[key] = value
	}
}

// WithOptions passes a set of named options to the body and callbacks
func WithOptions(options map[string]any) FireOption {
	return func(c *fireConfig) {
		if len(options) == 0 {
			return
		}
		if c.options == nil {
			c.options = make(map[string]any, len(options))
		}
		maps.Copy(c.options, options)
	}
}

func newFireConfig(opts []FireOption) fireConfig {
	var cfg fireConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
