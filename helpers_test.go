package transit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// record is the target used across the package tests
type record struct {
	mu    sync.Mutex
	ID    string
	State string
	Value string
	log   []string
}

func (r *record) get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.State
}

func (r *record) set(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = state
}

func (r *record) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
}

func (r *record) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.log))
	copy(out, r.log)
	return out
}

// recordStrategy keeps the state in record.State
type recordStrategy struct {
	mu     sync.Mutex
	writes int
	reject bool
	fail   error
}

func (s *recordStrategy) GetState(_ context.Context, r *record) (string, error) {
	return r.get(), nil
}

func (s *recordStrategy) SetState(_ context.Context, r *record, t *Transition[*record]) (bool, error) {
	s.mu.Lock()
	s.writes++
	reject, fail := s.reject, s.fail
	s.mu.Unlock()

	if fail != nil {
		return false, fail
	}
	if reject {
		return false, nil
	}
	r.set(t.To().Name)
	return true, nil
}

func (s *recordStrategy) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// revertingStrategy also restores the origin state after a failed pipeline
type revertingStrategy struct {
	*recordStrategy
	reverts int
}

func (s *revertingStrategy) RevertState(_ context.Context, r *record, t *Transition[*record]) {
	s.reverts++
	if t.Persisted() {
		r.set(t.From().Name)
	}
}

// txStrategy wraps the pipeline in a unit of work that restores the state on
// rollback, and supports strict writes
type txStrategy struct {
	*recordStrategy
	events []string
}

func (s *txStrategy) InTransaction(ctx context.Context, r *record, fn func(ctx context.Context) error) error {
	snapshot := r.get()
	s.events = append(s.events, "begin")
	if err := fn(ctx); err != nil {
		r.set(snapshot)
		s.events = append(s.events, "rollback")
		return err
	}
	s.events = append(s.events, "commit")
	return nil
}

func (s *txStrategy) SetStateStrict(_ context.Context, r *record, t *Transition[*record]) error {
	s.events = append(s.events, "strict")
	if r.get() != "" && r.get() != t.From().Name {
		return fmt.Errorf("stale state %q", r.get())
	}
	r.set(t.To().Name)
	return nil
}

// initStrategy assigns the initial state on first read
type initStrategy struct {
	*recordStrategy
	initialized int
}

func (s *initStrategy) InitializeState(_ context.Context, r *record, initial State) error {
	s.initialized++
	r.set(initial.Name)
	return nil
}

var (
	errDomain = errors.New("domain failure")
	errNotify = errors.New("notification failed")
)

// temporary is satisfied by errors that may succeed on retry
type temporary interface {
	error
	Temporary() bool
}

type timeoutError struct {
	op string
}

func (e *timeoutError) Error() string   { return e.op + " timed out" }
func (e *timeoutError) Temporary() bool { return true }

// orderMachine builds received -> processed -> accepted with a reject edge
// from the first two states
func orderMachine(s Strategy[*record]) *MachineBuilder[*record] {
	return NewMachine[*record]("order").
		Initial("received").
		States("processed", "accepted", "rejected").
		Event("process", func(e *EventBuilder[*record]) {
			e.Transition(States("received"), "processed")
		}).
		Event("accept", func(e *EventBuilder[*record]) {
			e.Transition(States("processed"), "accepted")
		}).
		Event("reject", func(e *EventBuilder[*record]) {
			e.Transition(States("received", "processed"), "rejected")
		}).
		WithStrategy(s)
}

func mustBuild(t *testing.T, b *MachineBuilder[*record]) *Machine[*record] {
	t.Helper()
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build machine: %v", err)
	}
	return m
}

// AssertState checks the current state as the machine resolves it
func AssertState(t *testing.T, m *Machine[*record], r *record, expected string) {
	t.Helper()
	state, err := m.Current(context.Background(), r)
	if err != nil {
		t.Fatalf("Failed to resolve current state: %v", err)
	}
	if state.Name != expected {
		t.Errorf("Expected state '%s', got '%s'", expected, state.Name)
	}
}

// TestObserver captures every lifecycle notification as a string
type TestObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *TestObserver) add(entry string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, entry)
}

func (o *TestObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	copy(out, o.events)
	return out
}

func (o *TestObserver) OnTransitionStart(_ context.Context, info TransitionInfo) {
	o.add("start:" + info.Event)
}

func (o *TestObserver) OnTransition(_ context.Context, info TransitionInfo) {
	o.add("transition:" + info.From + "->" + info.To)
}

func (o *TestObserver) OnHalt(_ context.Context, _ TransitionInfo, halt *TransitionHalted) {
	o.add("halt:" + halt.Reason)
}

func (o *TestObserver) OnDefuse(_ context.Context, _ TransitionInfo, err error) {
	o.add("defuse:" + err.Error())
}

func (o *TestObserver) OnError(_ context.Context, _ TransitionInfo, err error, handled bool) {
	o.add(fmt.Sprintf("error:%v:%t", err, handled))
}
