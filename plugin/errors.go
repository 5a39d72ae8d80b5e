package plugin

import "errors"

var (
	// ErrInvalidConfig indicates a prompt configuration failed parsing or schema validation.
	ErrInvalidConfig = errors.New("invalid prompt config")

	// ErrMissingPrompt indicates a function directory or definition has no template.
	ErrMissingPrompt = errors.New("missing prompt template")
)
