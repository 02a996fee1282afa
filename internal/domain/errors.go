package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeTransient     = "TRANSIENT_EXTERNAL_FAILURE"
	ErrCodeMalformed     = "MALFORMED_RESPONSE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyMessage    = NewDomainError(ErrCodeValidation, "message is required")
	ErrEmptyCollection = NewDomainError(ErrCodeValidation, "collection name is required")
	ErrInvalidCategory = NewDomainError(ErrCodeValidation, "invalid document category")
)

// External service errors. A transient failure is retried at the next poll
// or request; a malformed response always degrades to a named fallback value
// at the call site and never reaches an end user as a raw error.
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeTransient, "embedding service unavailable")
	ErrCompletionFailed     = NewDomainError(ErrCodeTransient, "completion service unavailable")
	ErrMalformedResponse    = NewDomainError(ErrCodeMalformed, "malformed response from AI service")
	ErrExtractionFailed     = NewDomainError(ErrCodeTransient, "document extraction failed")
)

// Retrieval errors
var (
	ErrNoRelevantRule = NewDomainError(ErrCodeNotFound, "no relevant rule found")
)
