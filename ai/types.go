package ai

import "errors"

var (
	// ErrUnknownProvider is returned for provider names other than openai and azure.
	ErrUnknownProvider = errors.New("unknown ai provider")

	// ErrEmptyResponse is returned when the model produced no choices.
	ErrEmptyResponse = errors.New("model returned no choices")

	// ErrEmbeddingsUnavailable is returned when embeddings are requested from a
	// service configured without an embedding model.
	ErrEmbeddingsUnavailable = errors.New("embeddings not configured")
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of a chat conversation.
type Message struct {
	Role    Role
	Content string
}

// RequestSettings tunes a completion request. Zero fields mean "use the
// provider default", except Temperature and TopP which are always sent.
type RequestSettings struct {
	Temperature      float64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int
	StopSequences    []string

	// ChatSystemPrompt is prepended as a system message for chat requests.
	ChatSystemPrompt string
}

// DefaultRequestSettings mirrors the defaults applied to prompt functions
// whose configuration does not specify completion settings.
func DefaultRequestSettings() *RequestSettings {
	return &RequestSettings{
		Temperature: 0.0,
		TopP:        1.0,
		MaxTokens:   256,
	}
}

// Messages builds the chat transcript for a single rendered prompt:
// an optional system message followed by the prompt as the user turn.
func (s *RequestSettings) Messages(prompt string) []Message {
	var msgs []Message
	if s != nil && s.ChatSystemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: s.ChatSystemPrompt})
	}
	return append(msgs, Message{Role: RoleUser, Content: prompt})
}
