package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeQuotaExceeded  ErrorType = "quota_exceeded"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeUnavailable    ErrorType = "unavailable"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeExternal       ErrorType = "external"
)

// Detail is one entry of a validation failure
type Detail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Internal   error     `json:"-"`
	Details    []Detail  `json:"details,omitempty"`
	// RetryAfter is the number of seconds a rate-limited caller should wait
	RetryAfter int `json:"retry_after,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// As extracts an *AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewValidationError creates a new validation error. The message should be
// the first human-readable problem; details lists all of them.
func NewValidationError(message string, details ...Detail) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a new not found error. It is also used when the
// entity exists but belongs to someone else.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Internal:   internal,
	}
}

// NewQuotaExceededError creates an error for closed, expired or full resources
func NewQuotaExceededError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeQuotaExceeded,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string, retryAfter int) *AppError {
	if retryAfter < 1 {
		retryAfter = 1
	}
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

// NewUnavailableError creates an error for an unreachable store
func NewUnavailableError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Internal:   internal,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error envelope
type ErrorResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	Type       string   `json:"type,omitempty"`
	Details    []Detail `json:"details,omitempty"`
	RetryAfter int      `json:"retryAfter,omitempty"`
	RequestID  string   `json:"requestId,omitempty"`
}

// NewErrorResponse builds the envelope for an AppError
func NewErrorResponse(appErr *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:    false,
		Error:      appErr.Message,
		Type:       string(appErr.Type),
		Details:    appErr.Details,
		RetryAfter: appErr.RetryAfter,
		RequestID:  requestID,
	}
}
