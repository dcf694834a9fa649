package transit

import (
	"context"
	"log/slog"

	"github.com/anggasct/transit/pkg/logger"
)

// Machine is a built, immutable state machine definition over targets of
// type T. It holds no per-target or per-call state, so one Machine can serve
// any number of goroutines firing events on distinct targets.
type Machine[T any] struct {
	name           string
	states         *StateRegistry
	events         *EventRegistry[T]
	transitions    *TransitionStore[T]
	callbacks      *CallbackRegistry[T]
	errorCallbacks *ErrorCallbackRegistry[T]
	defuse         *DefuseRegistry

	getter       StateGetter[T]
	setter       StateSetter[T]
	strictSetter StrictStateSetter[T]
	initializer  StateInitializer[T]
	reverter     StateReverter[T]
	transactor   Transactor[T]

	observers *ObserverManager
	logger    *slog.Logger
}

// Name returns the machine name
func (m *Machine[T]) Name() string {
	return m.name
}

// States returns every state in ordinal order
func (m *Machine[T]) States() []State {
	return m.states.All()
}

// State returns the state registered under name
func (m *Machine[T]) State(name string) (State, bool) {
	return m.states.Get(name)
}

// InitialState returns the initial state
func (m *Machine[T]) InitialState() State {
	s, _ := m.states.Initial()
	return s
}

// Next returns the state following name in ordinal order
func (m *Machine[T]) Next(name string) (State, bool) {
	return m.states.Next(name)
}

// Previous returns the state preceding name in ordinal order
func (m *Machine[T]) Previous(name string) (State, bool) {
	return m.states.Previous(name)
}

// Events returns every event in registration order
func (m *Machine[T]) Events() []*Event[T] {
	return m.events.All()
}

// EventNames returns every event name in registration order
func (m *Machine[T]) EventNames() []string {
	return m.events.Names()
}

// Event returns the event registered under name
func (m *Machine[T]) Event(name string) (*Event[T], bool) {
	return m.events.Get(name)
}

// Transitions returns every edge of the machine in registration order
func (m *Machine[T]) Transitions() []TransitionSpec[T] {
	return m.transitions.All()
}

// AllTransitionsFromTo returns the edges leaving one of the from states and
// entering one of the to states
func (m *Machine[T]) AllTransitionsFromTo(from, to StateSpec) ([]TransitionSpec[T], error) {
	froms, err := from.expand(m.states)
	if err != nil {
		return nil, err
	}
	tos, err := to.expand(m.states)
	if err != nil {
		return nil, err
	}
	return m.transitions.FromTo(froms, tos), nil
}

// Callbacks exposes the callback registry for inspection
func (m *Machine[T]) Callbacks() *CallbackRegistry[T] {
	return m.callbacks
}

// ErrorCallbacks exposes the error callback registry for inspection
func (m *Machine[T]) ErrorCallbacks() *ErrorCallbackRegistry[T] {
	return m.errorCallbacks
}

// Defuses exposes the defuse registry for inspection
func (m *Machine[T]) Defuses() *DefuseRegistry {
	return m.defuse
}

// Current resolves the target's current state. An unset state resolves to
// the initial state, which is assigned to the target when the getter
// implements StateInitializer.
func (m *Machine[T]) Current(ctx context.Context, target T) (State, error) {
	name, err := m.getter.GetState(ctx, target)
	if err != nil {
		return State{}, err
	}
	if name != "" {
		return m.states.resolve(name)
	}

	initial := m.InitialState()
	if m.initializer != nil {
		if err := m.initializer.InitializeState(ctx, target, initial); err != nil {
			return State{}, err
		}
		m.logger.DebugContext(ctx, "initial state assigned",
			logger.Machine(m.name),
			logger.State(initial.Name),
		)
	}
	return initial, nil
}

// Can reports whether event has a transition from the target's current state
func (m *Machine[T]) Can(ctx context.Context, target T, event string) (bool, error) {
	ev, ok := m.events.Get(event)
	if !ok {
		return false, NewUnknownEventError(m.name, event)
	}
	current, err := m.Current(ctx, target)
	if err != nil {
		return false, err
	}
	_, ok = ev.TransitionFrom(current.Name)
	return ok, nil
}

// Fire runs event against target. A halted transition is reported through
// Result.Halted with a nil error; every other failure is returned.
func (m *Machine[T]) Fire(ctx context.Context, target T, event string, opts ...FireOption) (Result, error) {
	return m.fire(ctx, target, event, false, opts)
}

// FireStrict runs event against target and returns a *TransitionHalted
// error when the transition is halted
func (m *Machine[T]) FireStrict(ctx context.Context, target T, event string, opts ...FireOption) (Result, error) {
	return m.fire(ctx, target, event, true, opts)
}

func (m *Machine[T]) fire(ctx context.Context, target T, event string, strict bool, opts []FireOption) (Result, error) {
	ev, ok := m.events.Get(event)
	if !ok {
		return Result{Event: event}, NewUnknownEventError(m.name, event)
	}

	current, err := m.Current(ctx, target)
	if err != nil {
		return Result{Event: event}, err
	}

	spec, ok := ev.TransitionFrom(current.Name)
	if !ok {
		m.logger.DebugContext(ctx, "transition not defined",
			logger.Machine(m.name),
			logger.Event(event),
			logger.State(current.Name),
		)
		return Result{Event: event, From: current.Name}, NewTransitionNotDefinedError(m.name, event, current.Name)
	}

	t := newTransition(m.name, spec, target, newFireConfig(opts), strict)
	return newExecution(m, t).run(ctx)
}
