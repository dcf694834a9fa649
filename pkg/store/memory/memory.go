// Package memory keeps target states in a process-local map keyed by target
// identity. Writes are compare-and-set against the transition origin, so two
// concurrent events on the same key cannot both succeed.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/pkg/store"
)

// Store maps keys to state names
type Store[K comparable] struct {
	mu     sync.RWMutex
	states map[K]string
}

// New creates an empty store
func New[K comparable]() *Store[K] {
	return &Store[K]{states: make(map[K]string)}
}

// GetState returns the stored state of key, or "" when unset
func (s *Store[K]) GetState(_ context.Context, key K) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[key], nil
}

// InitializeState stores initial for a key with no state
func (s *Store[K]) InitializeState(_ context.Context, key K, initial transit.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[key]; !ok {
		s.states[key] = initial.Name
	}
	return nil
}

// SetState moves key to t.To(). It reports false when another call changed
// the state since it was read.
func (s *Store[K]) SetState(_ context.Context, key K, t *transit.Transition[K]) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[key] != t.From().Name {
		return false, nil
	}
	s.states[key] = t.To().Name
	return true, nil
}

// SetStateStrict is SetState returning a *store.ConflictError instead of false
func (s *Store[K]) SetStateStrict(_ context.Context, key K, t *transit.Transition[K]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actual := s.states[key]; actual != t.From().Name {
		return store.NewConflictError(fmt.Sprint(key), t.From().Name, actual)
	}
	s.states[key] = t.To().Name
	return nil
}

// RevertState undoes a write made by the failed transition
func (s *Store[K]) RevertState(_ context.Context, key K, t *transit.Transition[K]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Persisted() && s.states[key] == t.To().Name {
		s.states[key] = t.From().Name
	}
}

// Put overwrites the state of key
func (s *Store[K]) Put(key K, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
}

// Delete removes key
func (s *Store[K]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
}

// Len returns the number of stored keys
func (s *Store[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Snapshot returns a copy of every stored state
func (s *Store[K]) Snapshot() map[K]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.states)
}
