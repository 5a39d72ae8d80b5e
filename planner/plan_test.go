package planner

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/semkit/core"
	"github.com/poiesic/semkit/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFunctions(t *testing.T) *plugin.Collection {
	t.Helper()
	c := plugin.NewCollection()
	echo := func(prefix string) core.NativeHandler {
		return func(_ context.Context, v *core.Variables) (string, error) {
			return fmt.Sprintf("%s(%s)", prefix, v.Input()), nil
		}
	}
	require.NoError(t, c.Add(core.MustNativeFunction("Upper", "", echo("upper")).InPlugin("Text")))
	require.NoError(t, c.Add(core.MustNativeFunction("Greet", "", func(_ context.Context, v *core.Variables) (string, error) {
		name, _ := v.Get("name")
		return "  hello " + name + "  ", nil
	}, core.Parameter{Name: "name", DefaultValue: "world"})))
	return c
}

func TestParsePlan(t *testing.T) {
	funcs := testFunctions(t)

	tests := []struct {
		name    string
		text    string
		steps   []string
		wantErr error
	}{
		{
			name:  "qualified and global names",
			text:  `<plan><function.Text.Upper/><function.Greet/><function._GLOBAL_FUNCTIONS_.Greet/></plan>`,
			steps: []string{"Text.Upper", "Greet", "Greet"},
		},
		{
			name:  "surrounding prose and comments",
			text:  "Sure!\n<plan>\n  <!-- shout -->\n  <function.Text.Upper input=\"a &amp; b\"/>\n</plan><!-- END -->\ntrailing <junk",
			steps: []string{"Text.Upper"},
		},
		{
			name:  "non-function children ignored",
			text:  `<plan><note>x</note><function.Text.Upper><function.Greet/></function.Text.Upper></plan>`,
			steps: []string{"Text.Upper"},
		},
		{name: "empty", text: `<plan/>`},
		{name: "no plan", text: "nothing here", wantErr: ErrInvalidPlan},
		{name: "unterminated", text: `<plan><function.Text.Upper/>`, wantErr: ErrInvalidPlan},
		{name: "malformed", text: `<plan><function.Text.Upper input="<x"/></plan>`, wantErr: ErrInvalidPlan},
		{name: "unknown", text: `<plan><function.Text.Lower/></plan>`, wantErr: ErrUnknownFunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.text, "goal", funcs, false)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got := make([]string, 0, len(plan.Steps))
			for _, s := range plan.Steps {
				got = append(got, s.FullyQualifiedName())
			}
			assert.Equal(t, len(tt.steps), len(got))
			if len(tt.steps) > 0 {
				assert.Equal(t, tt.steps, got)
			}
		})
	}
}

func TestParsePlanAttributes(t *testing.T) {
	plan, err := ParsePlan(`<plan><function.Text.Upper input="a &amp; b" setContextVariable="OUT" appendToResult="RESULT__X"/></plan>`,
		"goal", testFunctions(t), false)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)

	step := plan.Steps[0]
	assert.Equal(t, "Text", step.Plugin)
	assert.Equal(t, "Upper", step.Name)
	assert.Equal(t, map[string]string{"input": "a & b"}, step.Parameters)
	assert.Equal(t, "OUT", step.Output)
	assert.Equal(t, "RESULT__X", step.ResultKey)
	assert.Equal(t, "goal", plan.Goal)
}

func TestPlanInvoke(t *testing.T) {
	funcs := testFunctions(t)
	plan, err := ParsePlan(`<plan>
  <function.Greet setContextVariable="GREETING" appendToResult="RESULT__ALL"/>
  <function.Text.Upper input="$GREETING and $MISSING" appendToResult="RESULT__ALL"/>
  <function.Text.Upper/>
</plan>`, "the goal", funcs, false)
	require.NoError(t, err)

	state, err := plan.Invoke(context.Background(), funcs, nil)
	require.NoError(t, err)

	greeting, _ := state.Get("GREETING")
	assert.Equal(t, "hello world", greeting, "results are trimmed and defaults applied")

	all, _ := state.Get("RESULT__ALL")
	assert.Equal(t, "hello world\nupper(hello world and $MISSING)", all)
	assert.Equal(t, "upper(upper(hello world and $MISSING))", state.Input())
}

func TestPlanInvokeForwardsPlanVariables(t *testing.T) {
	funcs := testFunctions(t)

	tests := []struct {
		name string
		plan string
		vars *core.Variables
		want string
	}{
		{
			name: "earlier output fills declared parameter",
			plan: `<plan><function.Text.Upper input="ada" setContextVariable="name"/><function.Greet/></plan>`,
			want: "hello upper(ada)",
		},
		{
			name: "caller variable replaces default",
			plan: `<plan><function.Greet/></plan>`,
			vars: core.VariablesFrom(map[string]string{"name": "grace"}),
			want: "hello grace",
		},
		{
			name: "written parameter wins",
			plan: `<plan><function.Text.Upper input="ada" setContextVariable="name"/><function.Greet name="bob"/></plan>`,
			want: "hello bob",
		},
		{
			name: "default when no variable",
			plan: `<plan><function.Greet/></plan>`,
			want: "hello world",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.plan, "greet someone", funcs, false)
			require.NoError(t, err)

			state, err := plan.Invoke(context.Background(), funcs, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state.Input())
		})
	}
}

func TestPlanInvokeStartsFromGoal(t *testing.T) {
	funcs := testFunctions(t)
	plan := &Plan{Goal: "shout", Steps: []*Step{{Plugin: "Text", Name: "Upper"}}}

	state, err := plan.Invoke(context.Background(), funcs, core.NewVariables(""))
	require.NoError(t, err)
	assert.Equal(t, "upper(shout)", state.Input())

	vars := core.NewVariables("given")
	state, err = plan.Invoke(context.Background(), funcs, vars)
	require.NoError(t, err)
	assert.Equal(t, "upper(given)", state.Input())
	assert.Equal(t, "given", vars.Input(), "caller variables are not modified")
}

func TestPlanInvokeErrors(t *testing.T) {
	funcs := testFunctions(t)

	plan := &Plan{Steps: []*Step{{Plugin: "Text", Name: "Gone"}}}
	_, err := plan.Invoke(context.Background(), funcs, nil)
	assert.ErrorIs(t, err, ErrUnknownFunction)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan = &Plan{Steps: []*Step{{Plugin: "Text", Name: "Upper"}}}
	_, err = plan.Invoke(ctx, funcs, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanString(t *testing.T) {
	plan := &Plan{Steps: []*Step{{
		Plugin:     core.GlobalPlugin,
		Name:       "Greet",
		Parameters: map[string]string{"name": `"Kai" & co`, "input": "x"},
		Output:     "G",
		ResultKey:  "RESULT__G",
	}}}

	out := plan.String()
	assert.True(t, strings.HasPrefix(out, "<plan>\n"))
	assert.Contains(t, out, `<function._GLOBAL_FUNCTIONS_.Greet input="x" name="&#34;Kai&#34; &amp; co" setContextVariable="G" appendToResult="RESULT__G"/>`)

	reparsed, err := ParsePlan(out, "", testFunctions(t), false)
	require.NoError(t, err)
	require.Len(t, reparsed.Steps, 1)
	assert.Equal(t, `"Kai" & co`, reparsed.Steps[0].Parameters["name"])
}
