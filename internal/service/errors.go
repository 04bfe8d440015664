package service

import "errors"

// Error taxonomy returned by the messaging service. Handlers map these to
// HTTP status codes; anything else is reported as a generic server error
// with the detail logged only.
var (
	ErrValidation   = errors.New("invalid payload")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
)
