package transit

import "fmt"

// Event is a named trigger. It owns at most one transition per origin state.
type Event[T any] struct {
	name        string
	transitions map[string]*TransitionSpec[T]
	origins     []string
}

func newEvent[T any](name string) *Event[T] {
	return &Event[T]{
		name:        name,
		transitions: make(map[string]*TransitionSpec[T]),
	}
}

// Name returns the event name
func (e *Event[T]) Name() string {
	return e.name
}

// TransitionFrom returns the edge taken when the event fires in state
func (e *Event[T]) TransitionFrom(state string) (TransitionSpec[T], bool) {
	spec, ok := e.transitions[state]
	if !ok {
		return TransitionSpec[T]{}, false
	}
	return *spec, true
}

// Transitions returns the event's edges in registration order
func (e *Event[T]) Transitions() []TransitionSpec[T] {
	out := make([]TransitionSpec[T], 0, len(e.origins))
	for _, from := range e.origins {
		out = append(out, *e.transitions[from])
	}
	return out
}

// Origins returns the states the event can fire from
func (e *Event[T]) Origins() []string {
	out := make([]string, len(e.origins))
	copy(out, e.origins)
	return out
}

// Edges returns the concrete (from, to) pairs of the event
func (e *Event[T]) Edges() []Edge {
	out := make([]Edge, 0, len(e.origins))
	for _, from := range e.origins {
		out = append(out, e.transitions[from].Edge())
	}
	return out
}

// addTransition registers one edge per origin selected by from. Each edge is
// checked against the machine-wide store so (from, to) stays unique.
func (e *Event[T]) addTransition(states *StateRegistry, store *TransitionStore[T], from StateSpec, to string, body Body[T]) error {
	dest, err := states.resolve(to)
	if err != nil {
		return err
	}
	origins, err := from.expand(states)
	if err != nil {
		return err
	}

	for _, name := range origins {
		if _, exists := e.transitions[name]; exists {
			return NewConfigurationError(ErrCodeTransitionAlreadyRegistered, states.machine, "transitions",
				fmt.Sprintf("event '%s' already defines a transition from '%s'", e.name, name))
		}
		origin, err := states.resolve(name)
		if err != nil {
			return err
		}
		spec := &TransitionSpec[T]{Event: e.name, From: origin, To: dest, Body: body}
		if err := store.Add(spec); err != nil {
			return err
		}
		e.transitions[name] = spec
		e.origins = append(e.origins, name)
	}
	return nil
}

// EventRegistry holds the events of one machine in registration order
type EventRegistry[T any] struct {
	machine string
	events  map[string]*Event[T]
	order   []string
}

func newEventRegistry[T any](machine string) *EventRegistry[T] {
	return &EventRegistry[T]{
		machine: machine,
		events:  make(map[string]*Event[T]),
	}
}

// Register adds an event, failing on a duplicate name
func (r *EventRegistry[T]) Register(name string) (*Event[T], error) {
	if name == "" {
		return nil, NewConfigurationError(ErrCodeUnknownEvent, r.machine, "events", "event name cannot be empty")
	}
	if _, exists := r.events[name]; exists {
		return nil, NewEventAlreadyRegisteredError(r.machine, name)
	}
	ev := newEvent[T](name)
	r.events[name] = ev
	r.order = append(r.order, name)
	return ev, nil
}

// Get returns the event registered under name
func (r *EventRegistry[T]) Get(name string) (*Event[T], bool) {
	ev, ok := r.events[name]
	return ev, ok
}

// All returns every event in registration order
func (r *EventRegistry[T]) All() []*Event[T] {
	out := make([]*Event[T], 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.events[name])
	}
	return out
}

// Names returns every event name in registration order
func (r *EventRegistry[T]) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered events
func (r *EventRegistry[T]) Len() int {
	return len(r.order)
}
