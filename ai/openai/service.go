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


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/semkit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Service implements ai.Service using the OpenAI or Azure OpenAI chat API.
type Service struct {
	config   *ai.Config
	client   llms.Model
	embedder *Embedder
	logger   *slog.Logger
}

var _ ai.Service = (*Service)(nil)

// clientOptions translates an ai.Config into langchaingo client options.
func clientOptions(config *ai.Config, model string) []openai.Option {
	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(model),
	}
	if config.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(config.Endpoint))
	}
	switch config.Provider {
	case ai.ProviderAzure:
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(config.APIVersion),
		)
	default:
		if config.OrgID != "" {
			opts = append(opts, openai.WithOrganization(config.OrgID))
		}
	}
	if config.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(config.EmbeddingModel))
	}
	if config.HTTPClient != nil {
		opts = append(opts, openai.WithHTTPClient(config.HTTPClient))
	}
	return opts
}

// newService is an internal constructor that returns the concrete type.
func newService(config *ai.Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(clientOptions(config, config.ModelName())...)
	if err != nil {
		return nil, err
	}

	var embedder *Embedder
	if config.EmbeddingModel != "" {
		embedder, err = newEmbedder(config)
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		config:   config,
		client:   client,
		embedder: embedder,
		logger: slog.Default().With(
			"component", "openai-service",
			"provider", string(config.Provider),
			"model", config.ModelName()),
	}, nil
}

// NewService creates a chat completion service for the configured provider.
// The config is validated and normalized before use.
//
// Returns ai.Service interface (not *Service) to keep callers independent of
// the langchaingo client.
func NewService(config *ai.Config) (ai.Service, error) {
	return newService(config)
}

// CompleteChat sends the conversation and returns the first choice.
func (s *Service) CompleteChat(ctx context.Context, messages []ai.Message, settings *ai.RequestSettings) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	s.logger.Debug("sending chat completion", "messages", len(messages))
	response, err := s.client.GenerateContent(ctx, content, callOptions(settings)...)
	if err != nil {
		s.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		s.logger.Warn("no choices returned from model")
		return "", ai.ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// Complete sends prompt as a single user message, preceded by the
// configured system prompt if any.
func (s *Service) Complete(ctx context.Context, prompt string, settings *ai.RequestSettings) (string, error) {
	return s.CompleteChat(ctx, settings.Messages(prompt), settings)
}

// Embedder returns the embedding service, or nil when none is configured.
func (s *Service) Embedder() ai.Embedder {
	if s.embedder == nil {
		return nil
	}
	return s.embedder
}

// Close releases resources held by the service.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (s *Service) Close() error {
	s.logger.Debug("closing service")
	return nil
}

func messageType(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func callOptions(settings *ai.RequestSettings) []llms.CallOption {
	if settings == nil {
		settings = ai.DefaultRequestSettings()
	}
	opts := []llms.CallOption{llms.WithTemperature(settings.Temperature)}
	if settings.TopP > 0 {
		opts = append(opts, llms.WithTopP(settings.TopP))
	}
	if settings.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(settings.MaxTokens))
	}
	if settings.PresencePenalty != 0 {
		opts = append(opts, llms.WithPresencePenalty(settings.PresencePenalty))
	}
	if settings.FrequencyPenalty != 0 {
		opts = append(opts, llms.WithFrequencyPenalty(settings.FrequencyPenalty))
	}
	if len(settings.StopSequences) > 0 {
		opts = append(opts, llms.WithStopWords(settings.StopSequences))
	}
	return opts
}
