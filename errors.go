package listings

import (
	"fmt"
	"net/http"
)

// API error codes as constants
const (
	ErrorCodeValidationFailed  = "validation_failed"
	ErrorCodeUnauthorized      = "unauthorized"
	ErrorCodeInvalidCSRFToken  = "invalid_csrf_token"
	ErrorCodeForbidden         = "forbidden"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrorCodeServerError       = "server_error"
)

// APIError represents a structured error response
type APIError struct {
	Code    string // machine-readable error code
	Message string // human-readable error description
	Status  int    // HTTP status code
	Field   string // offending field for validation failures, if any
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, status int) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common API errors as reusable constructors
var (
	// ErrValidation indicates a request parameter failed validation
	ErrValidation = func(field, message string) *APIError {
		return &APIError{
			Code:    ErrorCodeValidationFailed,
			Message: message,
			Status:  http.StatusBadRequest,
			Field:   field,
		}
	}

	// ErrUnauthorized indicates the request lacks valid authentication
	ErrUnauthorized = func(message string) *APIError {
		return NewAPIError(ErrorCodeUnauthorized, message, http.StatusUnauthorized)
	}

	// ErrInvalidCSRF indicates a mutating request carried a missing, spent,
	// expired, or mismatched CSRF token
	ErrInvalidCSRF = func() *APIError {
		return NewAPIError(ErrorCodeInvalidCSRFToken, "invalid or missing CSRF token", http.StatusForbidden)
	}

	// ErrForbidden indicates the caller is authenticated but not allowed
	ErrForbidden = func(message string) *APIError {
		return NewAPIError(ErrorCodeForbidden, message, http.StatusForbidden)
	}

	// ErrNotFoundOrUnauthorized is the deliberately conflated response for
	// records that are absent or owned by someone else
	ErrNotFoundOrUnauthorized = func(kind string) *APIError {
		return NewAPIError(ErrorCodeNotFound, kind+" not found or unauthorized", http.StatusNotFound)
	}

	// ErrNotFound indicates the record does not exist
	ErrNotFound = func(kind string) *APIError {
		return NewAPIError(ErrorCodeNotFound, kind+" not found", http.StatusNotFound)
	}

	// ErrRateLimited indicates the caller exhausted its request budget
	ErrRateLimited = func() *APIError {
		return NewAPIError(ErrorCodeRateLimitExceeded, "rate limit exceeded, retry later", http.StatusTooManyRequests)
	}

	// ErrServer indicates an internal error occurred
	ErrServer = func() *APIError {
		return NewAPIError(ErrorCodeServerError, "internal server error", http.StatusInternalServerError)
	}
)
