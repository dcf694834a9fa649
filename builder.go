package transit

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// MachineBuilder configures a Machine. Configuration is single-threaded;
// definition errors are collected and returned together by Build.
type MachineBuilder[T any] struct {
	m      *Machine[T]
	getter StateGetter[T]
	setter StateSetter[T]
	errs   []error
	built  bool
}

// NewMachine starts the definition of a machine over targets of type T
func NewMachine[T any](name string) *MachineBuilder[T] {
	return &MachineBuilder[T]{
		m: &Machine[T]{
			name:           name,
			states:         newStateRegistry(name),
			events:         newEventRegistry[T](name),
			transitions:    newTransitionStore[T](name),
			callbacks:      newCallbackRegistry[T](),
			errorCallbacks: newErrorCallbackRegistry[T](),
			defuse:         newDefuseRegistry(),
			observers:      NewObserverManager(),
			logger:         slog.New(slog.DiscardHandler),
		},
	}
}

func (b *MachineBuilder[T]) fail(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// open reports whether the builder still accepts configuration
func (b *MachineBuilder[T]) open(component string) bool {
	if b.built {
		b.fail(NewConfigurationError(ErrCodeMachineSealed, b.m.name, component, "machine was already built"))
		return false
	}
	return true
}

// State registers a state
func (b *MachineBuilder[T]) State(name string, opts ...StateOption) *MachineBuilder[T] {
	if b.open("states") {
		_, err := b.m.states.Register(name, false, opts...)
		b.fail(err)
	}
	return b
}

// Initial registers the initial state
func (b *MachineBuilder[T]) Initial(name string, opts ...StateOption) *MachineBuilder[T] {
	if b.open("states") {
		_, err := b.m.states.Register(name, true, opts...)
		b.fail(err)
	}
	return b
}

// States registers several non-initial states in order
func (b *MachineBuilder[T]) States(names ...string) *MachineBuilder[T] {
	for _, name := range names {
		b.State(name)
	}
	return b
}

// Event registers an event and lets configure declare its transitions and
// event-scoped callbacks. An event must end up with at least one transition.
func (b *MachineBuilder[T]) Event(name string, configure func(e *EventBuilder[T])) *MachineBuilder[T] {
	if !b.open("events") {
		return b
	}
	ev, err := b.m.events.Register(name)
	if err != nil {
		b.fail(err)
		return b
	}
	eb := &EventBuilder[T]{b: b, ev: ev}
	if configure != nil {
		configure(eb)
	}
	if len(ev.origins) == 0 {
		b.fail(NewEventWithoutTransitionsError(b.m.name, name))
		return b
	}
	for _, apply := range eb.pending {
		apply()
	}
	return b
}

func (b *MachineBuilder[T]) edges(component string, from, to StateSpec) ([]Edge, bool) {
	if !b.open(component) {
		return nil, false
	}
	edges, err := expandEdges(b.m.states, from, to)
	if err != nil {
		b.fail(err)
		return nil, false
	}
	return edges, true
}

// Before registers a callback run ahead of the around chain on every edge
// selected by from and to
func (b *MachineBuilder[T]) Before(from, to StateSpec, cb Callback[T]) *MachineBuilder[T] {
	if edges, ok := b.edges("callbacks", from, to); ok {
		b.m.callbacks.register(edges, Before, cb)
	}
	return b
}

// After registers a callback run once the new state is persisted
func (b *MachineBuilder[T]) After(from, to StateSpec, cb Callback[T]) *MachineBuilder[T] {
	if edges, ok := b.edges("callbacks", from, to); ok {
		b.m.callbacks.register(edges, After, cb)
	}
	return b
}

// Around registers a callback wrapping the body and persistence. Callbacks
// registered first wrap those registered later.
func (b *MachineBuilder[T]) Around(from, to StateSpec, cb AroundCallback[T]) *MachineBuilder[T] {
	if edges, ok := b.edges("callbacks", from, to); ok {
		b.m.callbacks.registerAround(edges, cb)
	}
	return b
}

// OnSuccess registers a callback run after a clean completion, outside any
// transaction
func (b *MachineBuilder[T]) OnSuccess(from, to StateSpec, cb Callback[T]) *MachineBuilder[T] {
	if edges, ok := b.edges("callbacks", from, to); ok {
		b.m.callbacks.register(edges, Success, cb)
	}
	return b
}

// OnError registers a handler for errors of kind raised on the selected edges
func (b *MachineBuilder[T]) OnError(kind ErrorKind, from, to StateSpec, cb ErrorCallback[T]) *MachineBuilder[T] {
	if edges, ok := b.edges("error_callbacks", from, to); ok {
		b.m.errorCallbacks.register(edges, kind, cb)
	}
	return b
}

// Defuse swallows errors of the given kinds on the selected edges
func (b *MachineBuilder[T]) Defuse(from, to StateSpec, kinds ...ErrorKind) *MachineBuilder[T] {
	if edges, ok := b.edges("defuse", from, to); ok {
		b.m.defuse.register(edges, kinds...)
	}
	return b
}

// GetStateWith sets the strategy used to read the current state
func (b *MachineBuilder[T]) GetStateWith(getter StateGetter[T]) *MachineBuilder[T] {
	if b.open("strategy") {
		b.getter = getter
	}
	return b
}

// SetStateWith sets the strategy used to persist the new state
func (b *MachineBuilder[T]) SetStateWith(setter StateSetter[T]) *MachineBuilder[T] {
	if b.open("strategy") {
		b.setter = setter
	}
	return b
}

// WithStrategy sets both the getter and the setter
func (b *MachineBuilder[T]) WithStrategy(strategy Strategy[T]) *MachineBuilder[T] {
	return b.GetStateWith(strategy).SetStateWith(strategy)
}

// WithObserver adds an observer notified of the transition lifecycle
func (b *MachineBuilder[T]) WithObserver(observer Observer) *MachineBuilder[T] {
	if b.open("observers") {
		b.m.observers.AddObserver(observer)
	}
	return b
}

// WithLogger sets the logger used for debug output
func (b *MachineBuilder[T]) WithLogger(l *slog.Logger) *MachineBuilder[T] {
	if b.open("logger") && l != nil {
		b.m.logger = l
	}
	return b
}

// Build validates the definition and returns the immutable machine
func (b *MachineBuilder[T]) Build() (*Machine[T], error) {
	if b.built {
		return nil, NewConfigurationError(ErrCodeMachineSealed, b.m.name, "machine", "machine was already built")
	}

	errs := b.errs
	if _, ok := b.m.states.Initial(); !ok {
		errs = append(errs, NewConfigurationError(ErrCodeMissingConfiguration, b.m.name, "states", "no initial state defined"))
	}
	if b.getter == nil {
		errs = append(errs, NewConfigurationError(ErrCodeMissingConfiguration, b.m.name, "strategy", "no state getter configured"))
	}
	if b.setter == nil {
		errs = append(errs, NewConfigurationError(ErrCodeMissingConfiguration, b.m.name, "strategy", "no state setter configured"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m := b.m
	m.getter, m.setter = b.getter, b.setter
	m.strictSetter = capability[StrictStateSetter[T]](b.setter, b.getter)
	m.initializer = capability[StateInitializer[T]](b.getter, b.setter)
	m.reverter = capability[StateReverter[T]](b.setter, b.getter)
	m.transactor = capability[Transactor[T]](b.setter, b.getter)

	b.built = true
	return m, nil
}

// MustBuild is like Build but panics on definition errors
func (b *MachineBuilder[T]) MustBuild() *Machine[T] {
	m, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("transit: invalid machine %q: %v", b.m.name, err))
	}
	return m
}

// capability returns the first strategy implementing C
func capability[C any](strategies ...any) C {
	for _, s := range strategies {
		if c, ok := s.(C); ok {
			return c
		}
	}
	var zero C
	return zero
}

// EventBuilder declares the transitions of one event and callbacks scoped to
// its edges. Callback registrations bind once configure returns, so they see
// every transition of the event regardless of declaration order.
type EventBuilder[T any] struct {
	b       *MachineBuilder[T]
	ev      *Event[T]
	pending []func()
}

// Transition adds one edge per origin selected by from, all leading to to.
// body is optional.
func (e *EventBuilder[T]) Transition(from StateSpec, to string, body ...Body[T]) *EventBuilder[T] {
	var fn Body[T]
	if len(body) > 0 {
		fn = body[0]
	}
	e.b.fail(e.ev.addTransition(e.b.m.states, e.b.m.transitions, from, to, fn))
	return e
}

// EdgeOption narrows an event-scoped registration to a subset of the event's edges
type EdgeOption func(*edgeFilter)

type edgeFilter struct {
	from StateSpec
	to   StateSpec
}

// WithFrom restricts an event-scoped registration to edges leaving from
func WithFrom(from StateSpec) EdgeOption {
	return func(f *edgeFilter) { f.from = from }
}

// WithTo restricts an event-scoped registration to edges entering to
func WithTo(to StateSpec) EdgeOption {
	return func(f *edgeFilter) { f.to = to }
}

// bind queues register to run against the event's edges narrowed by opts
func (e *EventBuilder[T]) bind(opts []EdgeOption, register func(edges []Edge)) *EventBuilder[T] {
	e.pending = append(e.pending, func() {
		if edges, ok := e.edges(opts); ok {
			register(edges)
		}
	})
	return e
}

// edges returns the event's edges narrowed by opts
func (e *EventBuilder[T]) edges(opts []EdgeOption) ([]Edge, bool) {
	var f edgeFilter
	for _, opt := range opts {
		opt(&f)
	}

	var froms, tos []string
	var err error
	if f.from.IsSet() {
		if froms, err = f.from.expand(e.b.m.states); err != nil {
			e.b.fail(err)
			return nil, false
		}
	}
	if f.to.IsSet() {
		if tos, err = f.to.expand(e.b.m.states); err != nil {
			e.b.fail(err)
			return nil, false
		}
	}

	var out []Edge
	for _, edge := range e.ev.Edges() {
		if froms != nil && !slices.Contains(froms, edge.From) {
			continue
		}
		if tos != nil && !slices.Contains(tos, edge.To) {
			continue
		}
		out = append(out, edge)
	}
	return out, true
}

// Before registers a before callback on the event's edges
func (e *EventBuilder[T]) Before(cb Callback[T], opts ...EdgeOption) *EventBuilder[T] {
	return e.bind(opts, func(edges []Edge) { e.b.m.callbacks.register(edges, Before, cb) })
}

// After registers an after callback on the event's edges
func (e *EventBuilder[T]) After(cb Callback[T], opts ...EdgeOption) *EventBuilder[T] {
	return e.bind(opts, func(edges []Edge) { e.b.m.callbacks.register(edges, After, cb) })
}

// Around registers an around callback on the event's edges
func (e *EventBuilder[T]) Around(cb AroundCallback[T], opts ...EdgeOption) *EventBuilder[T] {
	return e.bind(opts, func(edges []Edge) { e.b.m.callbacks.registerAround(edges, cb) })
}

// OnSuccess registers a success callback on the event's edges
func (e *EventBuilder[T]) OnSuccess(cb Callback[T], opts ...EdgeOption) *EventBuilder[T] {
	return e.bind(opts, func(edges []Edge) { e.b.m.callbacks.register(edges, Success, cb) })
}

// OnError registers an error handler on the event's edges
func (e *EventBuilder[T]) OnError(kind ErrorKind, cb ErrorCallback[T], opts ...EdgeOption) *EventBuilder[T] {
	return e.bind(opts, func(edges []Edge) { e.b.m.errorCallbacks.register(edges, kind, cb) })
}

// Defuse swallows errors of the given kinds on the event's edges
func (e *EventBuilder[T]) Defuse(kinds []ErrorKind, opts ...EdgeOption) *EventBuilder[T] {
	return e.bind(opts, func(edges []Edge) { e.b.m.defuse.register(edges, kinds...) })
}
