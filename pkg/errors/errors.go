// Package errors defines structured error types for the Sentra monitoring service.
// Errors carry a stable code, an HTTP status, and optional metadata so that
// handlers can translate them into API responses without string matching.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sentrasec/sentra/pkg/constants"
)

// AppError is a structured application error with a code, an HTTP status,
// a human-readable description, and optional metadata.
type AppError struct {
	code       constants.ErrorCode
	httpStatus int
	message    string
	cause      error
	metadata   map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the stable error code.
func (e *AppError) Code() constants.ErrorCode {
	return e.code
}

// HTTPStatus returns the HTTP status code the error maps to.
func (e *AppError) HTTPStatus() int {
	return e.httpStatus
}

// Message returns the human-readable message without the cause chain.
func (e *AppError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// WithMetadata attaches a metadata key/value pair.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all attached metadata.
func (e *AppError) Metadata() map[string]interface{} {
	return e.metadata
}

// New creates a new AppError.
func New(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{
		code:       code,
		httpStatus: httpStatus,
		message:    message,
	}
}

// Wrap wraps err with a code and message, preserving the chain.
func Wrap(err error, code constants.ErrorCode, message string) *AppError {
	return New(code, statusFor(code), message).WithCause(err)
}

func statusFor(code constants.ErrorCode) int {
	switch code {
	case constants.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case constants.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case constants.ErrCodeForbidden:
		return http.StatusForbidden
	case constants.ErrCodeNotFound:
		return http.StatusNotFound
	case constants.ErrCodeConflict:
		return http.StatusConflict
	case constants.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrInvalidRequest creates a client error for malformed or incomplete input.
func ErrInvalidRequest(message string) *AppError {
	return New(constants.ErrCodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrMissingField creates a client error for a missing required field.
func ErrMissingField(field string) *AppError {
	return ErrInvalidRequest(fmt.Sprintf("missing required field: %s", field)).
		WithMetadata("field", field)
}

// ErrProfileNotFound creates a not-found error for an unknown monitored profile.
func ErrProfileNotFound(userID string) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("no monitored profile for user %s", userID)).
		WithMetadata("user_id", userID)
}

// ErrNotFound creates a generic not-found error for a named resource.
func ErrNotFound(resource string, id string) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s not found: %s", resource, id)).
		WithMetadata("id", id)
}

// ErrPersistence creates a server error for a failed mandatory write.
func ErrPersistence(operation string, cause error) *AppError {
	return New(constants.ErrCodeServerError, http.StatusInternalServerError,
		fmt.Sprintf("persistence failure during %s", operation)).
		WithCause(cause).
		WithMetadata("operation", operation)
}

// ErrAlreadyReviewed creates a conflict error for a terminal review transition
// that has already happened.
func ErrAlreadyReviewed(predictionID string) *AppError {
	return New(constants.ErrCodeConflict, http.StatusConflict,
		fmt.Sprintf("prediction already reviewed: %s", predictionID)).
		WithMetadata("prediction_id", predictionID)
}

// ErrAlreadyResolved creates a conflict error for a threat detection that has
// already been resolved.
func ErrAlreadyResolved(threatID string) *AppError {
	return New(constants.ErrCodeConflict, http.StatusConflict,
		fmt.Sprintf("threat detection already resolved: %s", threatID)).
		WithMetadata("threat_id", threatID)
}

// ErrExplanationUnavailable creates the failure signal for the best-effort
// explanation side channel. Callers must proceed without an explanation.
func ErrExplanationUnavailable(cause error) *AppError {
	return New(constants.ErrCodeUnavailable, http.StatusServiceUnavailable,
		"explanation service unavailable").WithCause(cause)
}

// ErrUnauthorized creates an authentication error.
func ErrUnauthorized(message string) *AppError {
	return New(constants.ErrCodeUnauthorized, http.StatusUnauthorized, message)
}

// ErrForbidden creates an authorization error.
func ErrForbidden(message string) *AppError {
	return New(constants.ErrCodeForbidden, http.StatusForbidden, message)
}

// ================================================================================
// Classification Helpers
// ================================================================================

// As attempts to cast an error to *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code() == constants.ErrCodeNotFound
	}
	return false
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code() == constants.ErrCodeConflict
	}
	return false
}

// IsClientError reports whether err maps to a 4xx status.
func IsClientError(err error) bool {
	if appErr, ok := As(err); ok {
		status := appErr.HTTPStatus()
		return status >= 400 && status < 500
	}
	return false
}

// ShouldLog reports whether the error warrants a server-side log entry.
// Client errors are reported to the caller and not logged.
func ShouldLog(err error) bool {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus() >= 500
	}
	return true
}
