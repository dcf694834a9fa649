package transit

import (
	"cmp"
	"maps"
)

// State represents a named state in a machine. Ordinal is assigned in
// registration order and drives comparison, Next and Previous.
type State struct {
	Name    string
	Initial bool
	Ordinal int
	Options map[string]any
}

func (s State) String() string {
	return s.Name
}

// IsZero reports whether s is the zero State
func (s State) IsZero() bool {
	return s.Name == ""
}

// Compare orders states by ordinal
func (s State) Compare(other State) int {
	return cmp.Compare(s.Ordinal, other.Ordinal)
}

// Before reports whether s was registered before other
func (s State) Before(other State) bool {
	return s.Ordinal < other.Ordinal
}

// After reports whether s was registered after other
func (s State) After(other State) bool {
	return s.Ordinal > other.Ordinal
}

// Option returns a state option value
func (s State) Option(key string) (any, bool) {
	v, ok := s.Options[key]
	return v, ok
}

// StateOption configures a state at registration
type StateOption func(*State)

// WithStateOption attaches a single option to the state
func WithStateOption(key string, value any) StateOption {
	return func(s *State) {
		if s.Options == nil {
			s.Options = make(map[string]any)
		}
		s.Options[key] = value
	}
}

// WithStateOptions attaches a set of options to the state
func WithStateOptions(options map[string]any) StateOption {
	return func(s *State) {
		if len(options) == 0 {
			return
		}
		if s.Options == nil {
			s.Options = make(map[string]any, len(options))
		}
		maps.Copy(s.Options, options)
	}
}

// StateRegistry holds the states of one machine in registration order
type StateRegistry struct {
	machine string
	states  []State
	index   map[string]int
	initial int
}

func newStateRegistry(machine string) *StateRegistry {
	return &StateRegistry{
		machine: machine,
		index:   make(map[string]int),
		initial: -1,
	}
}

// Register adds a state. It fails on a duplicate name or on a second initial state.
func (r *StateRegistry) Register(name string, initial bool, opts ...StateOption) (State, error) {
	if name == "" {
		return State{}, NewConfigurationError(ErrCodeUnknownState, r.machine, "states", "state name cannot be empty")
	}
	if _, exists := r.index[name]; exists {
		return State{}, NewStateAlreadyRegisteredError(r.machine, name)
	}
	if initial && r.initial >= 0 {
		return State{}, NewInitialStateAlreadyDefinedError(r.machine, r.states[r.initial].Name, name)
	}

	state := State{Name: name, Initial: initial, Ordinal: len(r.states)}
	for _, opt := range opts {
		opt(&state)
	}

	r.index[name] = len(r.states)
	r.states = append(r.states, state)
	if initial {
		r.initial = state.Ordinal
	}
	return state, nil
}

// Get returns the state registered under name
func (r *StateRegistry) Get(name string) (State, bool) {
	i, ok := r.index[name]
	if !ok {
		return State{}, false
	}
	return r.states[i], true
}

// Has reports whether a state is registered under name
func (r *StateRegistry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Initial returns the initial state, if one was declared
func (r *StateRegistry) Initial() (State, bool) {
	if r.initial < 0 {
		return State{}, false
	}
	return r.states[r.initial], true
}

// All returns every state in ordinal order
func (r *StateRegistry) All() []State {
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

// Names returns every state name in ordinal order
func (r *StateRegistry) Names() []string {
	names := make([]string, len(r.states))
	for i, s := range r.states {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of registered states
func (r *StateRegistry) Len() int {
	return len(r.states)
}

// Next returns the state registered right after name
func (r *StateRegistry) Next(name string) (State, bool) {
	i, ok := r.index[name]
	if !ok || i+1 >= len(r.states) {
		return State{}, false
	}
	return r.states[i+1], true
}

// Previous returns the state registered right before name
func (r *StateRegistry) Previous(name string) (State, bool) {
	i, ok := r.index[name]
	if !ok || i == 0 {
		return State{}, false
	}
	return r.states[i-1], true
}

// resolve returns the state or an UnknownState definition error
func (r *StateRegistry) resolve(name string) (State, error) {
	s, ok := r.Get(name)
	if !ok {
		return State{}, NewUnknownStateError(r.machine, name)
	}
	return s, nil
}
