package observers

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/anggasct/transit"
)

// ValidationObserver checks completed transitions against an expected graph
// and tracks which states were reached
type ValidationObserver struct {
	expectedStates     map[string]bool
	visitedStates      map[string]bool
	allowedTransitions map[string]map[string]bool
	traversed          map[transit.Edge]bool
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationObserver creates a new validation observer
func NewValidationObserver() *ValidationObserver {
	return &ValidationObserver{
		expectedStates:     make(map[string]bool),
		visitedStates:      make(map[string]bool),
		allowedTransitions: make(map[string]map[string]bool),
		traversed:          make(map[transit.Edge]bool),
		violations:         make([]string, 0),
	}
}

// NewGraphValidationObserver expects every state of g and allows exactly
// its edges
func NewGraphValidationObserver(g transit.Graph) *ValidationObserver {
	o := NewValidationObserver()
	for _, s := range g.States {
		o.AddExpectedState(s.Name)
	}
	for _, e := range g.Edges {
		o.AddAllowedTransition(e.From, e.To)
	}
	return o
}

// AddExpectedState adds an expected state
func (o *ValidationObserver) AddExpectedState(stateName string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.expectedStates[stateName] = true
}

// AddAllowedTransition adds an allowed transition
func (o *ValidationObserver) AddAllowedTransition(from, to string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[string]bool)
	}
	o.allowedTransitions[from][to] = true
}

// OnTransition validates the completed transition
func (o *ValidationObserver) OnTransition(ctx context.Context, info transit.TransitionInfo) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates[info.From] = true
	o.visitedStates[info.To] = true
	o.traversed[info.Edge()] = true

	if !o.allowedTransitions[info.From][info.To] {
		o.violations = append(o.violations, fmt.Sprintf(
			"unexpected transition from '%s' to '%s' on event '%s'",
			info.From, info.To, info.Event))
	}
}

// OnTransitionStart implements transit.ExtendedObserver
func (o *ValidationObserver) OnTransitionStart(ctx context.Context, info transit.TransitionInfo) {}

// OnHalt implements transit.ExtendedObserver
func (o *ValidationObserver) OnHalt(ctx context.Context, info transit.TransitionInfo, halt *transit.TransitionHalted) {
}

// OnDefuse implements transit.ExtendedObserver
func (o *ValidationObserver) OnDefuse(ctx context.Context, info transit.TransitionInfo, err error) {}

// OnError records unhandled errors as violations
func (o *ValidationObserver) OnError(ctx context.Context, info transit.TransitionInfo, err error, handled bool) {
	if handled {
		return
	}
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, fmt.Sprintf("error on event '%s': %v", info.Event, err))
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedStates returns states that were expected but not visited
func (o *ValidationObserver) GetUnvisitedStates() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []string
	for state := range o.expectedStates {
		if !o.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	return unvisited
}

// GetUntraversedEdges returns allowed edges no completed transition took,
// sorted by origin then destination
func (o *ValidationObserver) GetUntraversedEdges() []transit.Edge {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var out []transit.Edge
	for from, tos := range o.allowedTransitions {
		for to := range tos {
			if e := (transit.Edge{From: from, To: to}); !o.traversed[e] {
				out = append(out, e)
			}
		}
	}
	slices.SortFunc(out, func(a, b transit.Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return out
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset resets the validation state
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates = make(map[string]bool)
	o.traversed = make(map[transit.Edge]bool)
	o.violations = make([]string, 0)
}
