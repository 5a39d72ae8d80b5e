package template

import "errors"

var (
	// ErrInvalidTemplate indicates a syntax error inside a {{ }} block.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrNoFunctions is returned when a template calls functions but was
	// rendered without a function lookup.
	ErrNoFunctions = errors.New("template calls functions but no lookup was provided")

	// ErrFunctionCall wraps errors raised by functions invoked from a template.
	ErrFunctionCall = errors.New("template function call failed")
)
