package observers

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/anggasct/transit"
)

// MetricsObserver collects in-process counters about transitions
type MetricsObserver struct {
	transitionCounts map[string]int
	eventCounts      map[string]int
	stateVisits      map[string]int
	timeSpent        map[string]time.Duration
	haltCount        int
	defuseCount      int
	errorCount       int
	mutex            sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{}
	o.Reset()
	return o
}

// OnTransitionStart counts the fired event
func (o *MetricsObserver) OnTransitionStart(ctx context.Context, info transit.TransitionInfo) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.eventCounts[info.Event]++
}

// OnTransition records transition metrics
func (o *MetricsObserver) OnTransition(ctx context.Context, info transit.TransitionInfo) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	key := info.Edge().String()
	o.transitionCounts[key]++
	o.timeSpent[key] += info.Duration
	o.stateVisits[info.To]++
}

// OnHalt counts halts
func (o *MetricsObserver) OnHalt(ctx context.Context, info transit.TransitionInfo, halt *transit.TransitionHalted) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.haltCount++
}

// OnDefuse counts defused errors
func (o *MetricsObserver) OnDefuse(ctx context.Context, info transit.TransitionInfo, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.defuseCount++
}

// OnError counts errors leaving the pipeline
func (o *MetricsObserver) OnError(ctx context.Context, info transit.TransitionInfo, err error, handled bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.errorCount++
}

// GetTransitionCounts returns completed transitions keyed by "from->to"
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.transitionCounts)
}

// GetEventCounts returns the number of times each event was fired
func (o *MetricsObserver) GetEventCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.eventCounts)
}

// GetStateVisitCounts returns how often each state was entered
func (o *MetricsObserver) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.stateVisits)
}

// GetTimeSpent returns the accumulated pipeline duration per edge
func (o *MetricsObserver) GetTimeSpent() map[string]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.timeSpent)
}

// GetHaltCount returns the number of halts
func (o *MetricsObserver) GetHaltCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.haltCount
}

// GetDefuseCount returns the number of defused errors
func (o *MetricsObserver) GetDefuseCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.defuseCount
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.transitionCounts = make(map[string]int)
	o.eventCounts = make(map[string]int)
	o.stateVisits = make(map[string]int)
	o.timeSpent = make(map[string]time.Duration)
	o.haltCount = 0
	o.defuseCount = 0
	o.errorCount = 0
}
