package planner

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/poiesic/semkit/core"
)

const (
	functionTagPrefix = "function."
	setContextAttr    = "setContextVariable"
	appendResultAttr  = "appendToResult"
)

// Step is one function call in a plan.
type Step struct {
	Plugin string
	Name   string
	// Parameters are the call's arguments. Values may reference plan
	// variables as $NAME.
	Parameters map[string]string
	// Output names the plan variable that receives the result.
	Output string
	// ResultKey names the plan variable the result is appended to.
	ResultKey string

	// defaulted marks parameters filled from the function's defaults
	// rather than written in the plan.
	defaulted map[string]bool
}

// FullyQualifiedName returns plugin.name, or name for global functions.
func (s *Step) FullyQualifiedName() string {
	return core.FunctionView{Plugin: s.Plugin, Name: s.Name}.FullyQualifiedName()
}

// Plan is an ordered list of steps satisfying Goal.
type Plan struct {
	Goal  string
	Steps []*Step
}

// ParsePlan extracts the <plan> element from text. Steps are resolved
// against funcs; parameters the step omits take the function's defaults.
// Unknown functions fail with ErrUnknownFunction unless allowMissing is
// set, in which case they are dropped.
func ParsePlan(text, goal string, funcs core.Lookup, allowMissing bool) (*Plan, error) {
	start := strings.Index(text, "<plan")
	if start < 0 {
		return nil, fmt.Errorf("%w: no <plan> element found", ErrInvalidPlan)
	}

	plan := &Plan{Goal: goal}
	dec := xml.NewDecoder(strings.NewReader(text[start:]))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unterminated <plan>", ErrInvalidPlan)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if t.Name.Local != "plan" {
					return nil, fmt.Errorf("%w: unexpected <%s>", ErrInvalidPlan, t.Name.Local)
				}
				continue
			}
			if depth != 2 || !strings.HasPrefix(t.Name.Local, functionTagPrefix) {
				continue
			}
			step, err := parseStep(t, funcs)
			if err != nil {
				if allowMissing && errors.Is(err, ErrUnknownFunction) {
					continue
				}
				return nil, err
			}
			plan.Steps = append(plan.Steps, step)
		case xml.EndElement:
			depth--
			if depth == 0 {
				return plan, nil
			}
		}
	}
}

func parseStep(el xml.StartElement, funcs core.Lookup) (*Step, error) {
	full := strings.TrimPrefix(el.Name.Local, functionTagPrefix)
	pluginName, name := core.GlobalPlugin, full
	if i := strings.LastIndex(full, "."); i >= 0 {
		pluginName, name = full[:i], full[i+1:]
	}

	fn, err := funcs.Function(pluginName, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownFunction, full, err)
	}
	view := fn.View()

	step := &Step{
		Plugin:     core.NormalizePlugin(view.Plugin),
		Name:       view.Name,
		Parameters: make(map[string]string),
	}
	for _, p := range view.Parameters {
		if p.DefaultValue != "" {
			step.Parameters[p.Name] = p.DefaultValue
			if step.defaulted == nil {
				step.defaulted = make(map[string]bool)
			}
			step.defaulted[p.Name] = true
		}
	}
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case setContextAttr:
			step.Output = attr.Value
		case appendResultAttr:
			step.ResultKey = attr.Value
		default:
			step.Parameters[attr.Name.Local] = attr.Value
			delete(step.defaulted, attr.Name.Local)
		}
	}
	return step, nil
}

var variableRef = regexp.MustCompile(`\$([0-9A-Za-z_]+)`)

// expand replaces $NAME references with plan variables. Unknown
// references are left as written.
func expand(value string, state *core.Variables) string {
	return variableRef.ReplaceAllStringFunc(value, func(ref string) string {
		if v, ok := state.Get(ref[1:]); ok {
			return v
		}
		return ref
	})
}

// Invoke runs the steps in order against funcs. The plan state starts as
// a copy of vars, with the goal as input when vars has none. Each step
// sees its expanded parameters, the current input, and any plan variable
// named like one of the function's parameters; its result becomes the new
// input. The final state is returned.
func (p *Plan) Invoke(ctx context.Context, funcs core.Lookup, vars *core.Variables) (*core.Variables, error) {
	var state *core.Variables
	if vars == nil {
		state = core.NewVariables("")
	} else {
		state = vars.Clone()
	}
	if state.Input() == "" {
		state.SetInput(p.Goal)
	}

	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		fn, err := funcs.Function(step.Plugin, step.Name)
		if err != nil {
			return state, fmt.Errorf("%w: step %d: %w", ErrUnknownFunction, i+1, err)
		}

		stepVars := core.NewVariables(state.Input())
		for name, value := range step.Parameters {
			stepVars.Set(name, expand(value, state))
		}
		step.forwardState(fn.View().Parameters, state, stepVars)

		result, err := fn.Invoke(ctx, stepVars)
		if err != nil {
			return state, fmt.Errorf("step %d %s: %w", i+1, step.FullyQualifiedName(), err)
		}
		result = strings.TrimSpace(result)

		state.SetInput(result)
		if step.Output != "" {
			state.Set(step.Output, result)
		}
		if step.ResultKey != "" {
			prev, _ := state.Get(step.ResultKey)
			if prev != "" {
				result = prev + "\n" + result
			}
			state.Set(step.ResultKey, result)
		}
	}
	return state, nil
}

// forwardState gives each declared parameter the plan variable of the same
// name, unless the plan wrote the parameter explicitly. Plan variables
// replace function defaults.
func (s *Step) forwardState(params []core.Parameter, state, stepVars *core.Variables) {
	for _, p := range params {
		if p.Name == core.InputKey {
			continue
		}
		if _, written := s.Parameters[p.Name]; written && !s.defaulted[p.Name] {
			continue
		}
		if v, ok := state.Get(p.Name); ok && v != "" {
			stepVars.Set(p.Name, v)
		}
	}
}

// String renders the plan as the XML the planner asks for.
func (p *Plan) String() string {
	var b strings.Builder
	b.WriteString("<plan>\n")
	for _, s := range p.Steps {
		b.WriteString("  <")
		b.WriteString(functionTagPrefix)
		b.WriteString(s.Plugin)
		b.WriteString(".")
		b.WriteString(s.Name)
		for _, name := range sortedKeys(s.Parameters) {
			writeAttr(&b, name, s.Parameters[name])
		}
		if s.Output != "" {
			writeAttr(&b, setContextAttr, s.Output)
		}
		if s.ResultKey != "" {
			writeAttr(&b, appendResultAttr, s.ResultKey)
		}
		b.WriteString("/>\n")
	}
	b.WriteString("</plan>")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(b, []byte(value))
	b.WriteString(`"`)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
