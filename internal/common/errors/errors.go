// Package errors provides the standardized error taxonomy shared by the
// agent, the HTTP surface and the job workers.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeClassificationFailed   ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeUpstreamServiceFailure ErrorCode = "UPSTREAM_SERVICE_FAILURE"
	ErrCodeUnexpectedFailure      ErrorCode = "UNEXPECTED_FAILURE"

	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeSearchFailed      ErrorCode = "SEARCH_FAILED"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"

	ErrCodeContextStoreFailure ErrorCode = "CONTEXT_STORE_FAILURE"
	ErrCodeConversationBusy    ErrorCode = "CONVERSATION_BUSY"
	ErrCodeTimeout             ErrorCode = "TIMEOUT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// User-facing replies for failed turns.
const (
	MessageNotUnderstood  = "Sorry, I could not understand your request. Please try again."
	MessageGenericFailure = "Sorry, something went wrong. Please try again."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

func NewClassificationFailedError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Classifier returned an unrecognized label",
		Details:   fmt.Sprintf("raw: %q", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamServiceError is retryable: the caller may resend the same turn.
func NewUpstreamServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamServiceFailure,
		Message:   fmt.Sprintf("Upstream service %s failed", service),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Failed to load restaurant catalog",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewContextStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContextStoreFailure,
		Message:   "Conversation context store error",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewConversationBusyError(conversationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversationBusy,
		Message:   "Another turn is in progress for this conversation",
		Details:   fmt.Sprintf("conversationId: %s", conversationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("%s timed out", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Upstream Payloads
// ==========================

type upstreamPayload struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractUpstreamMessage looks for a JSON object starting at the first '{'
// in text and returns its error.message. ok is false when there is no such
// object or the message is empty.
func ExtractUpstreamMessage(text string) (msg string, ok bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}

	var payload upstreamPayload
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(&payload); err != nil {
		return "", false
	}
	if payload.Error == nil || payload.Error.Message == "" {
		return "", false
	}
	return payload.Error.Message, true
}

// ==========================
// 4. Utility Functions
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamServiceFailure,
		ErrCodeContextStoreFailure,
		ErrCodeCatalogLoadFailed:
		return 3

	case ErrCodeTimeout,
		ErrCodeConversationBusy:
		return 2

	default:
		return 0
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CLASSIFICATION") || strings.Contains(codeStr, "UPSTREAM"):
		return "ORACLE"
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "SEARCH") || codeStr == string(ErrCodeNotFound):
		return "CATALOG"
	case strings.Contains(codeStr, "CONTEXT") || strings.Contains(codeStr, "CONVERSATION"):
		return "CONVERSATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case codeStr == string(ErrCodeTimeout):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}
