package template

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/semkit/core"
)

// block is one parsed fragment of a template.
type block interface {
	render(ctx context.Context, vars *core.Variables, funcs core.Lookup) (string, error)
}

type textBlock struct {
	text string
}

func (b textBlock) render(context.Context, *core.Variables, core.Lookup) (string, error) {
	return b.text, nil
}

// varBlock is {{$name}}. Missing variables render as the empty string.
type varBlock struct {
	name string
}

func (b varBlock) render(_ context.Context, vars *core.Variables, _ core.Lookup) (string, error) {
	return b.resolve(vars), nil
}

func (b varBlock) resolve(vars *core.Variables) string {
	if vars == nil {
		return ""
	}
	val, ok := vars.Get(b.name)
	if !ok {
		slog.Warn("template variable not found", "component", "template", "variable", b.name)
	}
	return val
}

// valBlock is a quoted literal: {{'text'}}.
type valBlock struct {
	value string
}

func (b valBlock) render(context.Context, *core.Variables, core.Lookup) (string, error) {
	return b.value, nil
}

// argument is a function argument: either a variable reference or a literal.
type argument struct {
	variable *varBlock
	value    string
}

func (a argument) resolve(vars *core.Variables) string {
	if a.variable != nil {
		return a.variable.resolve(vars)
	}
	return a.value
}

type namedArgument struct {
	name string
	argument
}

// codeBlock is a function call: {{plugin.function $arg name='value'}}.
type codeBlock struct {
	plugin     string
	function   string
	positional *argument
	named      []namedArgument
}

func (b codeBlock) qualifiedName() string {
	if b.plugin == "" {
		return b.function
	}
	return b.plugin + "." + b.function
}

func (b codeBlock) render(ctx context.Context, vars *core.Variables, funcs core.Lookup) (string, error) {
	if funcs == nil {
		return "", fmt.Errorf("%w: %s", ErrNoFunctions, b.qualifiedName())
	}
	fn, err := funcs.Function(b.plugin, b.function)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFunctionCall, b.qualifiedName(), err)
	}

	// The callee works on a copy so template rendering never leaks state
	// back into the caller's variables.
	callVars := core.NewVariables("")
	if vars != nil {
		callVars = vars.Clone()
	}
	if b.positional != nil {
		callVars.SetInput(b.positional.resolve(vars))
	}
	for _, arg := range b.named {
		callVars.Set(arg.name, arg.resolve(vars))
	}

	out, err := fn.Invoke(ctx, callVars)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFunctionCall, b.qualifiedName(), err)
	}
	return out, nil
}

// unquote strips the surrounding quotes of a literal token and resolves
// backslash escapes. The caller guarantees tok starts with a quote.
func unquote(tok string) (string, error) {
	quote := tok[0]
	if len(tok) < 2 || tok[len(tok)-1] != quote {
		return "", fmt.Errorf("%w: unterminated literal %s", ErrInvalidTemplate, tok)
	}
	body := tok[1 : len(tok)-1]

	var sb strings.Builder
	sb.Grow(len(body))
	escaped := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if escaped {
			sb.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			next := byte(0)
			if i+1 < len(body) {
				next = body[i+1]
			}
			// Only quotes and backslashes are escapable; any other
			// backslash is kept literally.
			if next == '\'' || next == '"' || next == '\\' {
				escaped = true
				continue
			}
		}
		if c == quote {
			return "", fmt.Errorf("%w: unescaped quote in literal %s", ErrInvalidTemplate, tok)
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}
