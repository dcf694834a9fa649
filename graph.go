package transit

// GraphEdge is one event-labelled edge of a machine graph
type GraphEdge struct {
	Event string
	From  string
	To    string
}

// Graph is a type-free snapshot of a machine's states and edges, used by
// exporters
type Graph struct {
	Name    string
	Initial string
	States  []State
	Edges   []GraphEdge
}

// Graph returns the machine's states and event-labelled edges
func (m *Machine[T]) Graph() Graph {
	g := Graph{
		Name:    m.name,
		Initial: m.InitialState().Name,
		States:  m.states.All(),
	}
	for _, spec := range m.transitions.All() {
		g.Edges = append(g.Edges, GraphEdge{Event: spec.Event, From: spec.From.Name, To: spec.To.Name})
	}
	return g
}

// Outgoing returns the edges leaving state
func (g Graph) Outgoing(state string) []GraphEdge {
	var out []GraphEdge
	for _, e := range g.Edges {
		if e.From == state {
			out = append(out, e)
		}
	}
	return out
}

// Terminal reports whether no edge leaves state
func (g Graph) Terminal(state string) bool {
	return len(g.Outgoing(state)) == 0
}
