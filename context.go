package transit

import (
	"maps"
	"sync"
)

// Values is the data bag carried by one Transition. Callbacks use it to hand
// data down the pipeline (e.g. a before callback loading something the body
// needs). It is safe for use by goroutines a callback spawns.
type Values struct {
	data  map[string]any
	mutex sync.RWMutex
}

// NewValues creates an empty data bag
func NewValues() *Values {
	return &Values{data: make(map[string]any)}
}

// Get retrieves a value
func (v *Values) Get(key string) (any, bool) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	value, exists := v.data[key]
	return value, exists
}

// Set stores a value
func (v *Values) Set(key string, value any) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.data[key] = value
}

// Delete removes a value
func (v *Values) Delete(key string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	delete(v.data, key)
}

// GetAll returns a copy of all values
func (v *Values) GetAll() map[string]any {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return maps.Clone(v.data)
}

// Len returns the number of stored values
func (v *Values) Len() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return len(v.data)
}

// ValueAs returns a typed value from the bag
func ValueAs[V any](v *Values, key string) (V, bool) {
	var zero V
	raw, ok := v.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := raw.(V)
	return typed, ok
}
