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

package semkit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/poiesic/semkit/ai"
	"github.com/poiesic/semkit/core"
	"github.com/poiesic/semkit/memory"
	"github.com/poiesic/semkit/plugin"
)

// Kernel holds AI services and plugin functions, and invokes them.
type Kernel struct {
	functions *plugin.Collection
	chat      *registry[ai.ChatCompleter]
	text      *registry[ai.TextCompleter]
	embedding *registry[ai.Embedder]

	mu     sync.RWMutex
	memory *memory.TextMemory

	logger *slog.Logger
}

var _ plugin.Host = (*Kernel)(nil)

// Option configures a Kernel.
type Option func(*Kernel)

// WithMemory attaches a semantic memory. The kernel closes it on Close.
func WithMemory(m *memory.TextMemory) Option {
	return func(k *Kernel) {
		k.memory = m
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// NewKernel creates a kernel with no services or functions.
func NewKernel(opts ...Option) *Kernel {
	k := &Kernel{
		functions: plugin.NewCollection(),
		chat:      newRegistry[ai.ChatCompleter]("chat"),
		text:      newRegistry[ai.TextCompleter]("text completion"),
		embedding: newRegistry[ai.Embedder]("text embedding"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	k.logger = k.logger.With("component", "kernel")
	return k
}

// AddChatService registers a chat completion service. The first one
// registered becomes the default.
func (k *Kernel) AddChatService(id string, svc ai.ChatCompleter) error {
	return k.chat.add(id, svc)
}

// AddTextCompletionService registers a text completion service. The first
// one registered becomes the default.
func (k *Kernel) AddTextCompletionService(id string, svc ai.TextCompleter) error {
	return k.text.add(id, svc)
}

// AddTextEmbeddingService registers an embedding service. The first one
// registered becomes the default.
func (k *Kernel) AddTextEmbeddingService(id string, svc ai.Embedder) error {
	return k.embedding.add(id, svc)
}

// AddService registers svc under id for chat and text completion, and for
// embeddings when it has an embedder.
func (k *Kernel) AddService(id string, svc ai.Service) error {
	if err := k.AddChatService(id, svc); err != nil {
		return err
	}
	if err := k.AddTextCompletionService(id, svc); err != nil {
		return err
	}
	if e := svc.Embedder(); e != nil {
		return k.AddTextEmbeddingService(id, e)
	}
	return nil
}

// SetDefaultChatService makes id the default chat service.
func (k *Kernel) SetDefaultChatService(id string) error {
	return k.chat.setDefault(id)
}

// SetDefaultTextCompletionService makes id the default text completion service.
func (k *Kernel) SetDefaultTextCompletionService(id string) error {
	return k.text.setDefault(id)
}

// SetDefaultTextEmbeddingService makes id the default embedding service.
func (k *Kernel) SetDefaultTextEmbeddingService(id string) error {
	return k.embedding.setDefault(id)
}

// ChatService returns the chat service registered as id, or the default
// when id is empty.
func (k *Kernel) ChatService(id string) (ai.ChatCompleter, error) {
	return k.chat.get(id)
}

// TextCompletionService returns the text completion service registered as
// id, or the default when id is empty.
func (k *Kernel) TextCompletionService(id string) (ai.TextCompleter, error) {
	return k.text.get(id)
}

// TextEmbeddingService returns the embedding service registered as id, or
// the default when id is empty.
func (k *Kernel) TextEmbeddingService(id string) (ai.Embedder, error) {
	return k.embedding.get(id)
}

// ImportSemanticPluginFromDirectory loads parentDir/pluginName and
// registers its functions. Either every function is registered or, on
// error, none is. The loaded functions are returned by name.
func (k *Kernel) ImportSemanticPluginFromDirectory(parentDir, pluginName string) (map[string]core.Function, error) {
	fns, err := plugin.LoadDirectory(k, parentDir, pluginName)
	if err != nil {
		return nil, err
	}
	batch := make([]core.Function, len(fns))
	out := make(map[string]core.Function, len(fns))
	for i, fn := range fns {
		batch[i] = fn
		out[fn.View().Name] = fn
	}
	if err := k.functions.AddAll(batch...); err != nil {
		return nil, err
	}
	k.logger.Info("imported semantic plugin", "plugin", pluginName, "functions", len(out))
	return out, nil
}

// ImportPlugin registers native functions under pluginName. An empty name
// registers them as global functions.
func (k *Kernel) ImportPlugin(pluginName string, functions ...*core.NativeFunction) (map[string]core.Function, error) {
	pluginName = core.NormalizePlugin(pluginName)
	if pluginName != core.GlobalPlugin {
		if err := core.ValidatePluginName(pluginName); err != nil {
			return nil, err
		}
	}

	batch := make([]core.Function, 0, len(functions))
	out := make(map[string]core.Function, len(functions))
	for _, fn := range functions {
		if fn == nil {
			return nil, core.ErrNilFunction
		}
		bound := fn.InPlugin(pluginName)
		batch = append(batch, bound)
		out[bound.View().Name] = bound
	}
	if err := k.functions.AddAll(batch...); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSemanticFunction builds a function from an inline prompt and
// registers it. An empty functionName gets a generated name; an empty
// pluginName registers a global function. A nil config uses
// plugin.DefaultPromptConfig.
func (k *Kernel) CreateSemanticFunction(prompt, pluginName, functionName string, config *plugin.PromptConfig) (core.Function, error) {
	if strings.TrimSpace(functionName) == "" {
		functionName = fmt.Sprintf("func%016x", rand.Uint64())
	}
	fn, err := plugin.NewSemanticFunction(k, pluginName, functionName, prompt, config)
	if err != nil {
		return nil, err
	}
	if err := k.functions.Add(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// Function implements core.Lookup over the registered functions.
func (k *Kernel) Function(pluginName, functionName string) (core.Function, error) {
	return k.functions.Function(pluginName, functionName)
}

// Func looks up a registered function.
func (k *Kernel) Func(pluginName, functionName string) (core.Function, error) {
	return k.Function(pluginName, functionName)
}

// Views describes every registered function.
func (k *Kernel) Views() []core.FunctionView {
	return k.functions.Views()
}

// Functions returns the function registry.
func (k *Kernel) Functions() *plugin.Collection {
	return k.functions
}

// Invoke runs fn with input as the input variable.
func (k *Kernel) Invoke(ctx context.Context, fn core.Function, input string) (string, error) {
	if fn == nil {
		return "", core.ErrNilFunction
	}
	return fn.Invoke(ctx, core.NewVariables(input))
}

// Run invokes fns in order, feeding each result to the next as input.
// vars is updated in place and returned; nil starts from empty variables.
func (k *Kernel) Run(ctx context.Context, vars *core.Variables, fns ...core.Function) (*core.Variables, error) {
	if vars == nil {
		vars = core.NewVariables("")
	}
	for _, fn := range fns {
		if fn == nil {
			return vars, core.ErrNilFunction
		}
		if err := ctx.Err(); err != nil {
			return vars, err
		}
		view := fn.View()
		k.logger.Debug("running function", "function", view.FullyQualifiedName())
		out, err := fn.Invoke(ctx, vars)
		if err != nil {
			return vars, fmt.Errorf("%s: %w", view.FullyQualifiedName(), err)
		}
		vars.SetInput(out)
	}
	return vars, nil
}

// RegisterMemory attaches m, replacing and closing any previous memory.
func (k *Kernel) RegisterMemory(m *memory.TextMemory) error {
	k.mu.Lock()
	prev := k.memory
	k.memory = m
	k.mu.Unlock()

	if prev != nil && prev != m {
		return prev.Close()
	}
	return nil
}

// Memory returns the attached semantic memory, or nil.
func (k *Kernel) Memory() *memory.TextMemory {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.memory
}

// Close releases the attached memory.
func (k *Kernel) Close() error {
	k.mu.Lock()
	m := k.memory
	k.memory = nil
	k.mu.Unlock()

	if m == nil {
		return nil
	}
	if err := m.Close(); err != nil {
		k.logger.Error("error closing memory", "err", err)
		return err
	}
	return nil
}
