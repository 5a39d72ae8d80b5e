package core

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// InputKey is the distinguished variable holding a function's main input
// and, after invocation, its output.
const InputKey = "input"

// Variables is the set of named string values flowing between functions.
// Keys are case-insensitive. Safe for concurrent use.
type Variables struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewVariables creates a variable set whose input is the given text.
func NewVariables(input string) *Variables {
	return &Variables{
		values: map[string]string{InputKey: input},
	}
}

// VariablesFrom creates a variable set from a map. Keys are normalized to lower case.
func VariablesFrom(values map[string]string) *Variables {
	v := NewVariables("")
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

// Get returns the value for name and whether it was present.
func (v *Variables) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[strings.ToLower(name)]
	return val, ok
}

// Set stores value under name.
func (v *Variables) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.values == nil {
		v.values = make(map[string]string)
	}
	v.values[strings.ToLower(name)] = value
}

// Delete removes name from the set.
func (v *Variables) Delete(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.values, strings.ToLower(name))
}

// Input returns the value of the input variable.
func (v *Variables) Input() string {
	val, _ := v.Get(InputKey)
	return val
}

// SetInput replaces the value of the input variable.
func (v *Variables) SetInput(value string) {
	v.Set(InputKey, value)
}

// Clone returns an independent copy of the set.
func (v *Variables) Clone() *Variables {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return &Variables{values: maps.Clone(v.values)}
}

// Merge copies all values from other into v, overwriting existing keys.
func (v *Variables) Merge(other *Variables) {
	if other == nil || other == v {
		return
	}
	snapshot := other.Map()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.values == nil {
		v.values = make(map[string]string, len(snapshot))
	}
	maps.Copy(v.values, snapshot)
}

// Map returns a copy of the underlying values.
func (v *Variables) Map() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.values)
}

// Names returns the variable names in sorted order.
func (v *Variables) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.values))
}

// Len returns the number of variables in the set.
func (v *Variables) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.values)
}
