package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/semkit/core"
)

// Collection is a registry of functions grouped by plugin. Lookups are
// case-insensitive. Safe for concurrent use.
type Collection struct {
	mu      sync.RWMutex
	plugins map[string]*entry
}

type entry struct {
	name      string
	functions map[string]core.Function
}

var _ core.Lookup = (*Collection)(nil)

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{plugins: make(map[string]*entry)}
}

// Add registers fn under its view's plugin. Registering a second function
// with the same plugin and name returns core.ErrDuplicateFunction.
func (c *Collection) Add(fn core.Function) error {
	return c.AddAll(fn)
}

// AddAll registers every function or none of them. It fails without
// changing the collection when any function is nil, is already registered,
// or shares its plugin and name with another function in fns.
func (c *Collection) AddAll(fns ...core.Function) error {
	keys := make([][2]string, len(fns))
	batch := make(map[[2]string]bool, len(fns))
	for i, fn := range fns {
		if fn == nil {
			return core.ErrNilFunction
		}
		view := fn.View()
		key := [2]string{strings.ToLower(core.NormalizePlugin(view.Plugin)), strings.ToLower(view.Name)}
		if batch[key] {
			return fmt.Errorf("%w: %s", core.ErrDuplicateFunction, view.FullyQualifiedName())
		}
		batch[key] = true
		keys[i] = key
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, key := range keys {
		if e, ok := c.plugins[key[0]]; ok {
			if _, exists := e.functions[key[1]]; exists {
				return fmt.Errorf("%w: %s", core.ErrDuplicateFunction, fns[i].View().FullyQualifiedName())
			}
		}
	}
	for i, key := range keys {
		e, ok := c.plugins[key[0]]
		if !ok {
			e = &entry{name: core.NormalizePlugin(fns[i].View().Plugin), functions: make(map[string]core.Function)}
			c.plugins[key[0]] = e
		}
		e.functions[key[1]] = fns[i]
	}
	return nil
}

// Function finds a function. An empty plugin name searches the global plugin.
func (c *Collection) Function(pluginName, functionName string) (core.Function, error) {
	pluginName = core.NormalizePlugin(pluginName)

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.plugins[strings.ToLower(pluginName)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPluginNotFound, pluginName)
	}
	fn, ok := e.functions[strings.ToLower(functionName)]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", core.ErrFunctionNotFound, pluginName, functionName)
	}
	return fn, nil
}

// Plugin returns the functions of one plugin keyed by function name.
func (c *Collection) Plugin(pluginName string) (map[string]core.Function, error) {
	pluginName = core.NormalizePlugin(pluginName)

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.plugins[strings.ToLower(pluginName)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPluginNotFound, pluginName)
	}
	out := make(map[string]core.Function, len(e.functions))
	for _, fn := range e.functions {
		out[fn.View().Name] = fn
	}
	return out, nil
}

// Plugins returns the registered plugin names, sorted.
func (c *Collection) Plugins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.plugins))
	for _, e := range c.plugins {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Views describes every registered function, sorted by plugin then name.
func (c *Collection) Views() []core.FunctionView {
	c.mu.RLock()
	views := make([]core.FunctionView, 0)
	for _, e := range c.plugins {
		for _, fn := range e.functions {
			views = append(views, fn.View())
		}
	}
	c.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		pi, pj := strings.ToLower(views[i].Plugin), strings.ToLower(views[j].Plugin)
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(views[i].Name) < strings.ToLower(views[j].Name)
	})
	return views
}

// Len returns the number of registered functions.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.plugins {
		n += len(e.functions)
	}
	return n
}
