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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/semkit/ai"
	"github.com/poiesic/semkit/core"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// PromptConfig is the config.json stored next to a skprompt.txt.
type PromptConfig struct {
	Schema          int              `json:"schema"`
	Type            string           `json:"type"`
	Description     string           `json:"description"`
	Completion      CompletionConfig `json:"completion"`
	DefaultServices []string         `json:"default_services"`
	Input           InputConfig      `json:"input"`
}

// CompletionConfig holds the request settings of a prompt function.
type CompletionConfig struct {
	Temperature      float64  `json:"temperature" yaml:"temperature"`
	TopP             float64  `json:"top_p" yaml:"top_p"`
	PresencePenalty  float64  `json:"presence_penalty" yaml:"presence_penalty"`
	FrequencyPenalty float64  `json:"frequency_penalty" yaml:"frequency_penalty"`
	MaxTokens        int      `json:"max_tokens" yaml:"max_tokens"`
	StopSequences    []string `json:"stop_sequences" yaml:"stop_sequences"`
	ChatSystemPrompt string   `json:"chat_system_prompt" yaml:"chat_system_prompt"`
}

// InputConfig declares the parameters of a prompt function.
type InputConfig struct {
	Parameters []ParameterConfig `json:"parameters"`
}

// ParameterConfig is one declared parameter.
type ParameterConfig struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DefaultValue string `json:"defaultValue"`
}

// DefaultPromptConfig is used for prompt functions without a config.json.
func DefaultPromptConfig() *PromptConfig {
	d := ai.DefaultRequestSettings()
	return &PromptConfig{
		Schema: 1,
		Type:   "completion",
		Completion: CompletionConfig{
			Temperature: d.Temperature,
			TopP:        d.TopP,
			MaxTokens:   d.MaxTokens,
		},
	}
}

// RequestSettings converts the completion block into ai.RequestSettings.
func (c *PromptConfig) RequestSettings() *ai.RequestSettings {
	return c.Completion.requestSettings()
}

func (c CompletionConfig) requestSettings() *ai.RequestSettings {
	return &ai.RequestSettings{
		Temperature:      c.Temperature,
		TopP:             c.TopP,
		PresencePenalty:  c.PresencePenalty,
		FrequencyPenalty: c.FrequencyPenalty,
		MaxTokens:        c.MaxTokens,
		StopSequences:    append([]string(nil), c.StopSequences...),
		ChatSystemPrompt: c.ChatSystemPrompt,
	}
}

// Parameters converts the declared inputs into core parameters.
func (c *PromptConfig) Parameters() []core.Parameter {
	params := make([]core.Parameter, 0, len(c.Input.Parameters))
	for _, p := range c.Input.Parameters {
		params = append(params, core.Parameter{
			Name:         p.Name,
			Description:  p.Description,
			DefaultValue: p.DefaultValue,
		})
	}
	return params
}

const promptConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "schema": {"type": "integer", "minimum": 1},
    "type": {"type": "string", "enum": ["completion"]},
    "description": {"type": "string"},
    "completion": {
      "type": "object",
      "properties": {
        "max_tokens": {"type": "integer", "minimum": 0},
        "temperature": {"type": "number", "minimum": 0, "maximum": 2},
        "top_p": {"type": "number", "minimum": 0, "maximum": 1},
        "presence_penalty": {"type": "number", "minimum": -2, "maximum": 2},
        "frequency_penalty": {"type": "number", "minimum": -2, "maximum": 2},
        "stop_sequences": {"type": "array", "items": {"type": "string"}},
        "chat_system_prompt": {"type": "string"}
      }
    },
    "default_services": {"type": "array", "items": {"type": "string"}},
    "input": {
      "type": "object",
      "properties": {
        "parameters": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "name": {"type": "string", "pattern": "^[0-9A-Za-z_]+$"},
              "description": {"type": "string"},
              "defaultValue": {"type": "string"}
            },
            "required": ["name"]
          }
        }
      }
    }
  }
}`

var (
	schemaOnce   sync.Once
	schemaLoaded *gojsonschema.Schema
	schemaErr    error
)

func configSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaLoaded, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(promptConfigSchema))
	})
	return schemaLoaded, schemaErr
}

// ParsePromptConfig validates data against the prompt config schema and
// decodes it. Fields absent from data keep their DefaultPromptConfig values.
func ParsePromptConfig(data []byte) (*PromptConfig, error) {
	schema, err := configSchema()
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	cfg := DefaultPromptConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// PromptDefinition is a prompt function described in a single YAML file.
type PromptDefinition struct {
	Name              string                      `yaml:"name"`
	Description       string                      `yaml:"description"`
	Template          string                      `yaml:"template"`
	TemplateFormat    string                      `yaml:"template_format"`
	InputVariables    []InputVariable             `yaml:"input_variables"`
	ExecutionSettings map[string]CompletionConfig `yaml:"execution_settings"`
}

// InputVariable is one declared input of a YAML prompt definition.
type InputVariable struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default"`
}

// defaultServiceKey is the execution_settings entry that applies to the
// default service.
const defaultServiceKey = "default"

// ParsePromptDefinition decodes a YAML prompt definition.
func ParsePromptDefinition(data []byte) (*PromptDefinition, error) {
	var def PromptDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(def.Template) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingPrompt, def.Name)
	}
	if def.TemplateFormat != "" && def.TemplateFormat != "semantic-kernel" {
		return nil, fmt.Errorf("%w: unsupported template_format %q", ErrInvalidConfig, def.TemplateFormat)
	}
	return &def, nil
}

// PromptConfig converts the definition into the equivalent PromptConfig.
// The "default" execution settings become the completion block and every
// other key is listed as a preferred service, in sorted order.
func (d *PromptDefinition) PromptConfig() *PromptConfig {
	cfg := DefaultPromptConfig()
	cfg.Description = d.Description
	for _, v := range d.InputVariables {
		cfg.Input.Parameters = append(cfg.Input.Parameters, ParameterConfig{
			Name:         v.Name,
			Description:  v.Description,
			DefaultValue: v.Default,
		})
	}

	keys := make([]string, 0, len(d.ExecutionSettings))
	for k := range d.ExecutionSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == defaultServiceKey {
			continue
		}
		cfg.DefaultServices = append(cfg.DefaultServices, k)
	}
	if s, ok := d.ExecutionSettings[defaultServiceKey]; ok {
		cfg.Completion = s
	} else if len(keys) > 0 {
		cfg.Completion = d.ExecutionSettings[keys[0]]
	}
	return cfg
}
