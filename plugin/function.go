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


package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/semkit/ai"
	"github.com/poiesic/semkit/core"
	"github.com/poiesic/semkit/template"
)

// Services resolves completion services by id. An empty id selects the
// default service of that kind.
type Services interface {
	ChatService(id string) (ai.ChatCompleter, error)
	TextCompletionService(id string) (ai.TextCompleter, error)
}

// Host is what a semantic function needs at invocation time: services to
// complete with and functions the template may call.
type Host interface {
	core.Lookup
	Services
}

// SemanticFunction is a prompt template bound to a completion service.
type SemanticFunction struct {
	plugin   string
	name     string
	config   *PromptConfig
	template *template.Template
	host     Host
	logger   *slog.Logger
}

var _ core.Function = (*SemanticFunction)(nil)

// NewSemanticFunction parses prompt and binds it to host. A nil config
// uses DefaultPromptConfig.
func NewSemanticFunction(host Host, pluginName, functionName, prompt string, config *PromptConfig) (*SemanticFunction, error) {
	pluginName = core.NormalizePlugin(pluginName)
	if pluginName != core.GlobalPlugin {
		if err := core.ValidatePluginName(pluginName); err != nil {
			return nil, err
		}
	}
	if err := core.ValidateFunctionName(functionName); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultPromptConfig()
	}
	for _, p := range config.Input.Parameters {
		if err := core.ValidateParameterName(p.Name); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", pluginName, functionName, err)
		}
	}

	tmpl, err := template.Parse(prompt)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", pluginName, functionName, err)
	}

	return &SemanticFunction{
		plugin:   pluginName,
		name:     functionName,
		config:   config,
		template: tmpl,
		host:     host,
		logger:   slog.Default().With("component", "semantic-function", "function", pluginName+"."+functionName),
	}, nil
}

// View describes the function.
func (f *SemanticFunction) View() core.FunctionView {
	return core.FunctionView{
		Plugin:      f.plugin,
		Name:        f.name,
		Description: f.config.Description,
		Parameters:  f.config.Parameters(),
		IsSemantic:  true,
	}
}

// Config returns the prompt configuration.
func (f *SemanticFunction) Config() *PromptConfig {
	return f.config
}

// Template returns the parsed prompt.
func (f *SemanticFunction) Template() *template.Template {
	return f.template
}

// Invoke renders the prompt with vars and sends it to the selected service.
// Parameter defaults fill in variables that vars does not set; vars itself
// is not modified.
func (f *SemanticFunction) Invoke(ctx context.Context, vars *core.Variables) (string, error) {
	vars = core.WithDefaults(vars, f.config.Parameters())

	prompt, err := f.template.Render(ctx, vars, f.host)
	if err != nil {
		return "", err
	}
	settings := f.config.RequestSettings()

	chat, text, err := f.selectService()
	if err != nil {
		return "", err
	}

	f.logger.Debug("invoking semantic function", "prompt_length", len(prompt))
	if chat != nil {
		return chat.CompleteChat(ctx, settings.Messages(prompt), settings)
	}
	return text.Complete(ctx, prompt, settings)
}

// selectService walks default_services in order, then the default service.
// For each id a chat service wins over a text completion service.
func (f *SemanticFunction) selectService() (ai.ChatCompleter, ai.TextCompleter, error) {
	ids := append(append([]string(nil), f.config.DefaultServices...), "")
	for _, id := range ids {
		if chat, err := f.host.ChatService(id); err == nil {
			return chat, nil, nil
		}
		if text, err := f.host.TextCompletionService(id); err == nil {
			return nil, text, nil
		}
		if id != "" {
			f.logger.Warn("preferred service not registered", "service", id)
		}
	}
	return nil, nil, fmt.Errorf("%w: no completion service for %s.%s", core.ErrServiceNotFound, f.plugin, f.name)
}
