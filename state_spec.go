package transit

import (
	"fmt"
	"slices"
	"strings"
)

type specKind int

const (
	specUnset specKind = iota
	specList
	specAny
	specExcept
)

// StateSpec selects a set of states when registering transitions and
// callbacks. Wildcards are expanded against the states registered so far at
// the moment the registration verb runs; registries only ever store
// concrete edges.
type StateSpec struct {
	kind  specKind
	names []string
}

// States selects the named states
func States(names ...string) StateSpec {
	return StateSpec{kind: specList, names: slices.Clone(names)}
}

// AnyState selects every registered state
func AnyState() StateSpec {
	return StateSpec{kind: specAny}
}

// AllStates is an alias of AnyState that reads better on the destination side
func AllStates() StateSpec {
	return AnyState()
}

// AllStatesExcept selects every registered state but the excluded ones
func AllStatesExcept(excluded ...string) StateSpec {
	return StateSpec{kind: specExcept, names: slices.Clone(excluded)}
}

// IsSet reports whether the spec was explicitly provided
func (s StateSpec) IsSet() bool {
	return s.kind != specUnset
}

func (s StateSpec) String() string {
	switch s.kind {
	case specAny:
		return "*"
	case specExcept:
		return fmt.Sprintf("* - [%s]", strings.Join(s.names, ", "))
	case specList:
		return fmt.Sprintf("[%s]", strings.Join(s.names, ", "))
	default:
		return "<unset>"
	}
}

// expand resolves the spec into concrete, registered state names
func (s StateSpec) expand(r *StateRegistry) ([]string, error) {
	switch s.kind {
	case specAny:
		return r.Names(), nil
	case specExcept:
		for _, name := range s.names {
			if !r.Has(name) {
				return nil, NewUnknownStateError(r.machine, name)
			}
		}
		out := make([]string, 0, r.Len())
		for _, name := range r.Names() {
			if !slices.Contains(s.names, name) {
				out = append(out, name)
			}
		}
		return out, nil
	case specList:
		out := make([]string, 0, len(s.names))
		for _, name := range s.names {
			if !r.Has(name) {
				return nil, NewUnknownStateError(r.machine, name)
			}
			if !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
		return out, nil
	default:
		return nil, NewConfigurationError(ErrCodeUnknownState, r.machine, "states", "state selector is not set")
	}
}

// Edge is an ordered (from, to) state pair. Callbacks, error callbacks and
// defuse rules are all keyed by edge.
type Edge struct {
	From string
	To   string
}

func (e Edge) String() string {
	return e.From + "->" + e.To
}

// expandEdges builds the Cartesian product of two specs, from-major, in
// registration order
func expandEdges(r *StateRegistry, from, to StateSpec) ([]Edge, error) {
	froms, err := from.expand(r)
	if err != nil {
		return nil, err
	}
	tos, err := to.expand(r)
	if err != nil {
		return nil, err
	}
	edges := make([]Edge, 0, len(froms)*len(tos))
	for _, f := range froms {
		for _, t := range tos {
			edges = append(edges, Edge{From: f, To: t})
		}
	}
	return edges, nil
}
