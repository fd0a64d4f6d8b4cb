// Package apperrors defines sentinel errors shared across the engine.
// Handlers match on these with errors.Is to pick a response status.
package apperrors

import "errors"

var (
	ErrMissingMessage   = errors.New("message is required")
	ErrUnknownTable     = errors.New("unknown table")
	ErrOracleFailed     = errors.New("oracle call failed")
	ErrDeadlineExceeded = errors.New("request deadline exceeded")
)
