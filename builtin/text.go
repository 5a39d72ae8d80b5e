// Package builtin provides native plugins that are useful in most kernels.
package builtin

import (
	"context"
	"strings"
	"unicode"

	"github.com/poiesic/semkit/core"
)

// TextPluginName is the conventional plugin name for TextPlugin.
const TextPluginName = "text"

// TextPlugin returns string manipulation functions. Each operates on the
// input variable.
func TextPlugin() []*core.NativeFunction {
	return []*core.NativeFunction{
		inputFunc("trim", "Remove leading and trailing whitespace", strings.TrimSpace),
		inputFunc("trimStart", "Remove leading whitespace", func(s string) string {
			return strings.TrimLeftFunc(s, unicode.IsSpace)
		}),
		inputFunc("trimEnd", "Remove trailing whitespace", func(s string) string {
			return strings.TrimRightFunc(s, unicode.IsSpace)
		}),
		inputFunc("uppercase", "Convert to upper case", strings.ToUpper),
		inputFunc("lowercase", "Convert to lower case", strings.ToLower),
		core.MustNativeFunction("concat", "Concatenate input and input2",
			func(_ context.Context, vars *core.Variables) (string, error) {
				second, _ := vars.Get("input2")
				return vars.Input() + second, nil
			},
			core.Parameter{Name: core.InputKey, Description: "First text"},
			core.Parameter{Name: "input2", Description: "Second text"},
		),
	}
}

func inputFunc(name, description string, fn func(string) string) *core.NativeFunction {
	return core.MustNativeFunction(name, description,
		func(_ context.Context, vars *core.Variables) (string, error) {
			return fn(vars.Input()), nil
		},
		core.Parameter{Name: core.InputKey, Description: "Text to process"},
	)
}
