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

package planner

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/semkit/core"
	"github.com/poiesic/semkit/memory"
	"github.com/poiesic/semkit/plugin"
)

//go:embed skprompt.txt
var defaultPrompt string

// AvailableFunctionsKey is the prompt variable holding the function manual.
const AvailableFunctionsKey = "available_functions"

// Host is what the planner needs from a kernel.
type Host interface {
	plugin.Host
	Views() []core.FunctionView
	Memory() *memory.TextMemory
}

// Planner turns a goal into a sequential Plan of registered functions.
type Planner struct {
	host   Host
	config *Config
	prompt *plugin.SemanticFunction
	logger *slog.Logger
}

// New creates a planner for host. A nil config uses DefaultConfig. The
// planner keeps a normalized copy, so later changes to config do not
// affect it.
func New(host Host, config *Config) (*Planner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.clone()
	config.Normalize()

	text := config.Prompt
	if text == "" {
		text = defaultPrompt
	}
	promptConfig := plugin.DefaultPromptConfig()
	promptConfig.Description = "Create a plan for the given goal"
	promptConfig.Completion.Temperature = 0
	promptConfig.Completion.TopP = 0
	promptConfig.Completion.MaxTokens = config.MaxTokens
	promptConfig.Input.Parameters = []plugin.ParameterConfig{
		{Name: core.InputKey, Description: "The goal to satisfy"},
		{Name: AvailableFunctionsKey, Description: "The function manual"},
	}

	fn, err := plugin.NewSemanticFunction(host, PluginName, FunctionName, text, promptConfig)
	if err != nil {
		return nil, err
	}

	return &Planner{
		host:   host,
		config: config,
		prompt: fn,
		logger: slog.Default().With("component", "sequential-planner"),
	}, nil
}

// CreatePlan asks the default completion service for a plan that
// satisfies goal.
func (p *Planner) CreatePlan(ctx context.Context, goal string) (*Plan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrInvalidGoal
	}

	views, err := p.AvailableFunctions(ctx, goal)
	if err != nil {
		return nil, err
	}

	vars := core.NewVariables(goal)
	vars.Set(AvailableFunctionsKey, Manual(views))

	p.logger.Debug("creating plan", "goal", goal, "functions", len(views))
	answer, err := p.prompt.Invoke(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreatePlan, err)
	}

	plan, err := ParsePlan(answer, goal, p.host, p.config.AllowMissingFunctions)
	if err != nil {
		p.logger.Warn("model returned an unusable plan", "err", err)
		return nil, err
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps for goal %q with the available functions", ErrInvalidPlan, goal)
	}
	p.logger.Info("created plan", "goal", goal, "steps", len(plan.Steps))
	return plan, nil
}

// AvailableFunctions lists the functions offered to the model for goal.
func (p *Planner) AvailableFunctions(ctx context.Context, goal string) ([]core.FunctionView, error) {
	var candidates []core.FunctionView
	for _, v := range p.host.Views() {
		pluginName := core.NormalizePlugin(v.Plugin)
		if p.config.excludedPlugin(pluginName) || p.config.excludedFunction(pluginName, v.Name) {
			continue
		}
		candidates = append(candidates, v)
	}

	if p.config.RelevancyThreshold == nil {
		return candidates, nil
	}
	mem := p.host.Memory()
	if mem == nil {
		p.logger.Warn("relevancy threshold set without memory, offering every function")
		return candidates, nil
	}
	return p.relevantFunctions(ctx, mem, goal, candidates)
}

// relevantFunctions indexes candidate manuals in memory, then keeps the
// closest matches to goal followed by any included functions.
func (p *Planner) relevantFunctions(ctx context.Context, mem *memory.TextMemory, goal string, candidates []core.FunctionView) ([]core.FunctionView, error) {
	byKey := make(map[string]core.FunctionView, len(candidates))
	var missing []memory.Information
	for _, v := range candidates {
		key := qualifiedName(v)
		byKey[key] = v
		text := manualEntry(v)
		if rec, err := mem.Get(ctx, MemoryCollection, key); err == nil && rec.Text == text {
			continue
		}
		missing = append(missing, memory.Information{Key: key, Text: text, Description: v.Description})
	}
	if len(missing) > 0 {
		if _, err := mem.SaveAll(ctx, MemoryCollection, missing); err != nil {
			return nil, err
		}
	}

	matches, err := mem.Search(ctx, MemoryCollection, goal, p.config.MaxRelevantFunctions, *p.config.RelevancyThreshold)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []core.FunctionView
	for _, m := range matches {
		v, ok := byKey[m.Record.Key]
		if !ok || seen[m.Record.Key] {
			continue
		}
		seen[m.Record.Key] = true
		out = append(out, v)
	}
	for _, v := range candidates {
		key := qualifiedName(v)
		if !seen[key] && p.config.includedFunction(core.NormalizePlugin(v.Plugin), v.Name) {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// qualifiedName always includes the plugin, global functions included.
func qualifiedName(v core.FunctionView) string {
	return core.NormalizePlugin(v.Plugin) + "." + v.Name
}

// Manual renders views in the format the planner prompt expects.
func Manual(views []core.FunctionView) string {
	entries := make([]string, 0, len(views))
	for _, v := range views {
		entries = append(entries, manualEntry(v))
	}
	return strings.Join(entries, "\n")
}

func manualEntry(v core.FunctionView) string {
	var b strings.Builder
	b.WriteString(qualifiedName(v))
	b.WriteString(":\n  description: ")
	b.WriteString(v.Description)
	b.WriteString("\n  inputs:\n")
	for _, param := range v.Parameters {
		b.WriteString("    - ")
		b.WriteString(param.Name)
		b.WriteString(": ")
		b.WriteString(param.Description)
		if param.DefaultValue != "" {
			b.WriteString(" (default value: ")
			b.WriteString(param.DefaultValue)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}
