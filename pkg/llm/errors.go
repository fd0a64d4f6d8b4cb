package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies oracle failures for diagnostics. The user-facing
// answer never carries these; they surface only in logs and the response's
// diagnostic field.
type ErrorType string

const (
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeCanceled    ErrorType = "canceled"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeAuth        ErrorType = "auth_failed"
	ErrorTypeServer      ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a structured oracle error.
type Error struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ClassifyError categorizes an error from an oracle client into a
// structured Error.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrorTypeTimeout, Message: "oracle call timed out", Retryable: true, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Type: ErrorTypeCanceled, Message: "oracle call canceled", Retryable: false, Cause: err}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &Error{Type: ErrorTypeRateLimited, Message: "oracle rate limited", Retryable: true, Cause: err}
	case strings.Contains(lower, "401") || strings.Contains(lower, "403") ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return &Error{Type: ErrorTypeAuth, Message: "oracle authentication failed", Retryable: false, Cause: err}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return &Error{Type: ErrorTypeTimeout, Message: "oracle call timed out", Retryable: true, Cause: err}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") || strings.Contains(lower, "overloaded"):
		return &Error{Type: ErrorTypeServer, Message: "oracle server error", Retryable: true, Cause: err}
	}

	return &Error{Type: ErrorTypeUnknown, Message: "oracle call failed", Retryable: false, Cause: err}
}
