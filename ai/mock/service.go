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


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/semkit/ai"
)

// Call records one completion request received by a MockService.
type Call struct {
	Messages []ai.Message
	Settings *ai.RequestSettings
}

// Prompt returns the content of the last message in the call.
func (c Call) Prompt() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Content
}

// MockService is a test double for ai.Service.
// By default it echoes the last message back.
type MockService struct {
	// CompleteChatFunc is called by CompleteChat and Complete if set.
	CompleteChatFunc func(ctx context.Context, messages []ai.Message, settings *ai.RequestSettings) (string, error)

	embedder *MockEmbedder

	mu    sync.Mutex
	calls []Call
}

var _ ai.Service = (*MockService)(nil)

// NewMockService creates a mock service with a default mock embedder.
//
// Note: returns the concrete type so tests can inject behavior and inspect calls.
func NewMockService() *MockService {
	return &MockService{embedder: NewMockEmbedder()}
}

// NewMockServiceWithReply creates a mock service that always answers reply.
func NewMockServiceWithReply(reply string) *MockService {
	return NewMockService().WithReply(reply)
}

// WithReply makes every completion return reply.
func (m *MockService) WithReply(reply string) *MockService {
	m.CompleteChatFunc = func(ctx context.Context, messages []ai.Message, settings *ai.RequestSettings) (string, error) {
		return reply, nil
	}
	return m
}

// WithError makes every completion fail with err.
func (m *MockService) WithError(err error) *MockService {
	m.CompleteChatFunc = func(ctx context.Context, messages []ai.Message, settings *ai.RequestSettings) (string, error) {
		return "", err
	}
	return m
}

// WithEmbedder replaces the embedder returned by Embedder. nil disables embeddings.
func (m *MockService) WithEmbedder(e *MockEmbedder) *MockService {
	m.embedder = e
	return m
}

// CompleteChat records the call and returns the injected or echoed reply.
func (m *MockService) CompleteChat(ctx context.Context, messages []ai.Message, settings *ai.RequestSettings) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Messages: append([]ai.Message(nil), messages...), Settings: settings})
	fn := m.CompleteChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, settings)
	}
	if len(messages) == 0 {
		return "", nil
	}
	return messages[len(messages)-1].Content, nil
}

// Complete sends prompt through CompleteChat.
func (m *MockService) Complete(ctx context.Context, prompt string, settings *ai.RequestSettings) (string, error) {
	return m.CompleteChat(ctx, settings.Messages(prompt), settings)
}

// Embedder returns the mock embedder, or nil if embeddings were disabled.
func (m *MockService) Embedder() ai.Embedder {
	if m.embedder == nil {
		return nil
	}
	return m.embedder
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (m *MockService) GetMockEmbedder() *MockEmbedder {
	return m.embedder
}

// Close is a no-op for the mock service.
func (m *MockService) Close() error {
	return nil
}

// Calls returns a copy of all recorded calls.
func (m *MockService) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns the number of completion requests received.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call and whether there was one.
func (m *MockService) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and injected behavior.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteChatFunc = nil
}
