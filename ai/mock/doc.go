// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Service and ai.Embedder
// for use in unit tests. The mocks allow tests to run without network access
// and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Default: echo the rendered prompt back
//	svc := mock.NewMockService()
//	out, err := svc.Complete(ctx, "hello", nil) // "hello"
//
//	// Fixed reply
//	svc := mock.NewMockServiceWithReply("<plan></plan>")
//
//	// Inspect what was sent
//	call, _ := svc.LastCall()
//	prompt := call.Prompt()
//
// # Default Behavior
//
//   - MockService: Returns the content of the last message
//   - MockEmbedder: Returns bag-of-words vectors, so texts sharing words
//     are similar and identical texts have similarity 1
package mock
