package ai

import "context"

// ChatCompleter generates assistant replies for a conversation.
// Implementations must be thread-safe for concurrent use.
type ChatCompleter interface {
	// CompleteChat sends the messages to the model and returns the content of
	// the first choice. settings may be nil.
	CompleteChat(ctx context.Context, messages []Message, settings *RequestSettings) (string, error)
}

// TextCompleter completes a single prompt.
// Implementations must be thread-safe for concurrent use.
type TextCompleter interface {
	// Complete sends prompt to the model and returns the completion text.
	// settings may be nil.
	Complete(ctx context.Context, prompt string, settings *RequestSettings) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Service aggregates the capabilities of a single hosted model connection.
// A Service created for chat can always serve text completion by sending the
// prompt as one user message.
type Service interface {
	ChatCompleter
	TextCompleter

	// Embedder returns the embedding service, or nil when the config named no
	// embedding model.
	Embedder() Embedder

	// Close releases resources held by the service.
	Close() error
}
