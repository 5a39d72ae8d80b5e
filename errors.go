package semkit

import "errors"

var (
	// ErrDuplicateService indicates a service id is already registered for its kind.
	ErrDuplicateService = errors.New("service already registered")

	// ErrInvalidServiceID indicates an empty service id or a nil service.
	ErrInvalidServiceID = errors.New("invalid service")
)
