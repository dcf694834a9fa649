package transit

import (
	"context"
	"fmt"
	"time"
)

// TransitionInfo is the observer-facing snapshot of one invocation
type TransitionInfo struct {
	Machine  string
	ID       string
	Event    string
	From     string
	To       string
	Phase    Phase
	Strict   bool
	Duration time.Duration
}

// Edge returns the (from, to) pair of the snapshot
func (i TransitionInfo) Edge() Edge {
	return Edge{From: i.From, To: i.To}
}

// Observer represents an entity that observes the transition lifecycle
type Observer interface {
	// OnTransition is called when a transition completed and was persisted
	OnTransition(ctx context.Context, info TransitionInfo)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnTransitionStart is called when a pipeline is entered
	OnTransitionStart(ctx context.Context, info TransitionInfo)

	// OnHalt is called when a transition is halted
	OnHalt(ctx context.Context, info TransitionInfo, halt *TransitionHalted)

	// OnDefuse is called when an error is swallowed by a defuse rule
	OnDefuse(ctx context.Context, info TransitionInfo, err error)

	// OnError is called when an error leaves the pipeline, handled or not
	OnError(ctx context.Context, info TransitionInfo, err error, handled bool)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver) OnTransition(ctx context.Context, info TransitionInfo) {}

// OnTransitionStart implements the optional ExtendedObserver method
func (o *BaseObserver) OnTransitionStart(ctx context.Context, info TransitionInfo) {}

// OnHalt implements the optional ExtendedObserver method
func (o *BaseObserver) OnHalt(ctx context.Context, info TransitionInfo, halt *TransitionHalted) {}

// OnDefuse implements the optional ExtendedObserver method
func (o *BaseObserver) OnDefuse(ctx context.Context, info TransitionInfo, err error) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(ctx context.Context, info TransitionInfo, err error, handled bool) {}

// ObserverManager manages a collection of observers. Observers are added
// while a machine is configured and only read afterwards.
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	if observer != nil {
		om.observers = append(om.observers, observer)
	}
}

// Len returns the number of observers
func (om *ObserverManager) Len() int {
	return len(om.observers)
}

// guard runs fn and turns an observer panic into an OnError notification
func (om *ObserverManager) guard(ctx context.Context, observer Observer, info TransitionInfo, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if extObs, ok := observer.(ExtendedObserver); ok && hook != "OnError" {
				func() {
					defer func() { recover() }()
					extObs.OnError(ctx, info, fmt.Errorf("observer panic in %s: %v", hook, r), true)
				}()
			}
		}
	}()
	fn()
}

// NotifyTransition notifies all observers of a completed transition
func (om *ObserverManager) NotifyTransition(ctx context.Context, info TransitionInfo) {
	for _, observer := range om.observers {
		om.guard(ctx, observer, info, "OnTransition", func() {
			observer.OnTransition(ctx, info)
		})
	}
}

// NotifyTransitionStart notifies all observers that a pipeline started
func (om *ObserverManager) NotifyTransitionStart(ctx context.Context, info TransitionInfo) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			om.guard(ctx, observer, info, "OnTransitionStart", func() {
				extObs.OnTransitionStart(ctx, info)
			})
		}
	}
}

// NotifyHalt notifies all observers of a halted transition
func (om *ObserverManager) NotifyHalt(ctx context.Context, info TransitionInfo, halt *TransitionHalted) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			om.guard(ctx, observer, info, "OnHalt", func() {
				extObs.OnHalt(ctx, info, halt)
			})
		}
	}
}

// NotifyDefuse notifies all observers of a swallowed error
func (om *ObserverManager) NotifyDefuse(ctx context.Context, info TransitionInfo, err error) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			om.guard(ctx, observer, info, "OnDefuse", func() {
				extObs.OnDefuse(ctx, info, err)
			})
		}
	}
}

// NotifyError notifies all observers of an error leaving the pipeline
func (om *ObserverManager) NotifyError(ctx context.Context, info TransitionInfo, err error, handled bool) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			om.guard(ctx, observer, info, "OnError", func() {
				extObs.OnError(ctx, info, err, handled)
			})
		}
	}
}
