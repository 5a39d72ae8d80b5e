// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"context"
	"fmt"
	"strings"
)

// GlobalPlugin is the plugin name used for functions registered without one.
const GlobalPlugin = "_GLOBAL_FUNCTIONS_"

// Parameter describes one named input of a function.
type Parameter struct {
	Name         string
	Description  string
	DefaultValue string
}

// FunctionView is the read-only description of a registered function.
// It is what planners and listings see; it never carries behavior.
type FunctionView struct {
	Plugin      string
	Name        string
	Description string
	Parameters  []Parameter
	IsSemantic  bool
}

// FullyQualifiedName returns "Plugin.Name", or just "Name" for global functions.
func (v FunctionView) FullyQualifiedName() string {
	if v.Plugin == "" || v.Plugin == GlobalPlugin {
		return v.Name
	}
	return v.Plugin + "." + v.Name
}

// Function is an invocable unit registered in a plugin.
// Implementations must be safe for concurrent use.
type Function interface {
	// View returns the function's metadata.
	View() FunctionView

	// Invoke runs the function against vars and returns its output.
	// vars is owned by the caller; implementations may read and write it.
	Invoke(ctx context.Context, vars *Variables) (string, error)
}

// Lookup resolves functions by plugin and name.
// An empty plugin name refers to GlobalPlugin.
type Lookup interface {
	Function(plugin, name string) (Function, error)
}

// NativeHandler is the Go implementation behind a NativeFunction.
type NativeHandler func(ctx context.Context, vars *Variables) (string, error)

// NativeFunction is a Function implemented in Go.
type NativeFunction struct {
	view    FunctionView
	handler NativeHandler
}

var _ Function = (*NativeFunction)(nil)

// NewNativeFunction creates a native function. Plugin may be empty and is
// filled in when the function is registered.
func NewNativeFunction(name, description string, handler NativeHandler, params ...Parameter) (*NativeFunction, error) {
	if err := ValidateFunctionName(name); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilFunction, name)
	}
	for _, p := range params {
		if err := ValidateParameterName(p.Name); err != nil {
			return nil, fmt.Errorf("function %s: %w", name, err)
		}
	}
	return &NativeFunction{
		view: FunctionView{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		handler: handler,
	}, nil
}

// MustNativeFunction is like NewNativeFunction but panics on invalid input.
// Intended for package-level plugin definitions with constant names.
func MustNativeFunction(name, description string, handler NativeHandler, params ...Parameter) *NativeFunction {
	fn, err := NewNativeFunction(name, description, handler, params...)
	if err != nil {
		panic(err)
	}
	return fn
}

// View returns the function's metadata.
func (f *NativeFunction) View() FunctionView {
	view := f.view
	view.Parameters = append([]Parameter(nil), f.view.Parameters...)
	return view
}

// InPlugin returns a copy of f bound to the given plugin name.
func (f *NativeFunction) InPlugin(plugin string) *NativeFunction {
	bound := *f
	bound.view.Plugin = plugin
	return &bound
}

// Invoke calls the handler with a copy of vars in which parameter defaults
// fill unset variables. vars itself is not modified.
func (f *NativeFunction) Invoke(ctx context.Context, vars *Variables) (string, error) {
	return f.handler(ctx, WithDefaults(vars, f.view.Parameters))
}

// ApplyDefaults sets every parameter with a default value that is missing
// or empty in vars.
func ApplyDefaults(vars *Variables, params []Parameter) {
	for _, p := range params {
		if p.DefaultValue == "" {
			continue
		}
		if val, ok := vars.Get(p.Name); !ok || val == "" {
			vars.Set(p.Name, p.DefaultValue)
		}
	}
}

// WithDefaults returns a copy of vars with ApplyDefaults applied. A nil
// vars yields fresh variables.
func WithDefaults(vars *Variables, params []Parameter) *Variables {
	if vars == nil {
		vars = NewVariables("")
	} else {
		vars = vars.Clone()
	}
	ApplyDefaults(vars, params)
	return vars
}

// NormalizePlugin maps the empty plugin name to GlobalPlugin.
func NormalizePlugin(plugin string) string {
	if strings.TrimSpace(plugin) == "" {
		return GlobalPlugin
	}
	return plugin
}
