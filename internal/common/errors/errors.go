// Package errors provides standardized error handling for the chat pipeline.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	ErrCodeRateLimitedAPICalls ErrorCode = "RATE_LIMITED_API_CALLS"
	ErrCodeRateLimitedMessages ErrorCode = "RATE_LIMITED_MESSAGES"

	ErrCodeClassificationFailed  ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeUpstreamUnavailable   ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodePersistenceDegraded   ErrorCode = "PERSISTENCE_DEGRADED"
	ErrCodeToolValidationFailed  ErrorCode = "TOOL_VALIDATION_FAILED"
	ErrCodeToolExecutionFailed   ErrorCode = "TOOL_EXECUTION_FAILED"
	ErrCodeStrategyNotAvailable  ErrorCode = "STRATEGY_NOT_AVAILABLE"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// ChatError represents a structured application error.
type ChatError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("ChatError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps an error code to the transport status.
func (e *ChatError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitedAPICalls, ErrCodeRateLimitedMessages:
		return http.StatusTooManyRequests
	case ErrCodeClassificationFailed, ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message safe to surface to a caller. Internal
// codes degrade to a generic text so diagnostics never leak.
func (e *ChatError) UserMessage() string {
	switch e.Code {
	case ErrCodeInternal, ErrCodePersistenceDegraded:
		return "An internal error occurred. Please try again later."
	default:
		return e.Message
	}
}

// NewBadRequestError creates a non-retryable malformed-input error.
func NewBadRequestError(details string) *ChatError {
	return &ChatError{
		Code:      ErrCodeBadRequest,
		Message:   "Invalid request payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates an error for a missing identity.
func NewUnauthorizedError() *ChatError {
	return &ChatError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication required",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates an error for a mismatched identity.
func NewForbiddenError(details string) *ChatError {
	return &ChatError{
		Code:      ErrCodeForbidden,
		Message:   "You do not have access to this chat",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates an error for a missing chat.
func NewNotFoundError(chatID string) *ChatError {
	return &ChatError{
		Code:      ErrCodeNotFound,
		Message:   "Chat not found",
		Details:   fmt.Sprintf("chatId: %s", chatID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAPICallLimitError creates a rate-limit error for the API-call counter.
// The message carries the caller-visible limits verbatim; guests also see
// the higher limit available to registered users.
func NewAPICallLimitError(userMessage string, limit int) *ChatError {
	return &ChatError{
		Code:      ErrCodeRateLimitedAPICalls,
		Message:   userMessage,
		Retryable: false,
		Metadata:  map[string]interface{}{"limit": limit},
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageLimitError creates a rate-limit error for the message counter.
func NewMessageLimitError(limit int) *ChatError {
	return &ChatError{
		Code:      ErrCodeRateLimitedMessages,
		Message:   fmt.Sprintf("You have reached your daily message limit (%d/day). Please try again tomorrow.", limit),
		Retryable: false,
		Metadata:  map[string]interface{}{"limit": limit},
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationFailedError creates a retryable classifier error,
// distinct from a valid low-confidence "others" result.
func NewClassificationFailedError(err error) *ChatError {
	return &ChatError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Intent classification failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError creates a retryable generation-backend error.
func NewUpstreamUnavailableError(err error) *ChatError {
	return &ChatError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   "Generation backend unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceDegradedError creates an error for a post-stream write
// failure. Logged, never surfaced to the already-completed response.
func NewPersistenceDegradedError(op string, err error) *ChatError {
	return &ChatError{
		Code:      ErrCodePersistenceDegraded,
		Message:   "Persistence write failed after stream completion",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolValidationError creates a non-retryable tool input error.
func NewToolValidationError(tool string, details string) *ChatError {
	return &ChatError{
		Code:      ErrCodeToolValidationFailed,
		Message:   "Tool input validation failed",
		Details:   fmt.Sprintf("tool: %s, %s", tool, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolExecutionError creates a non-retryable tool execution error.
// Tools are deterministic, so retrying a failed execution is pointless.
func NewToolExecutionError(tool string, err error) *ChatError {
	return &ChatError{
		Code:      ErrCodeToolExecutionFailed,
		Message:   "Tool execution failed",
		Details:   fmt.Sprintf("tool: %s, error: %s", tool, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *ChatError {
	return &ChatError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// AsChatError normalizes any error to a *ChatError.
func AsChatError(err error) *ChatError {
	if ce, ok := err.(*ChatError); ok {
		return ce
	}
	return NewInternalError(err)
}
