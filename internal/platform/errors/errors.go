// Package errors provides coded application errors so transport layers
// can map business outcomes to status codes without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes recognized by the transport layers.
const (
	ErrCodeValidation   = "VALIDATION"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeUnavailable  = "UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL"
)

// AppError is an error carrying an application error code.
type AppError struct {
	Code    string
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error { return e.cause }

// New creates a coded error with the given message.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap annotates err with a code and message. Returns nil when err is nil.
func Wrap(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, cause: err}
}

// NotFound reports a missing resource by type and identifier.
func NotFound(resource, id string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// InvalidInput reports a failed validation on a named field.
func InvalidInput(field, message string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("%s: %s", field, message))
}

// CodeOf returns the application code of err, or ErrCodeInternal for
// errors that carry no code.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error to the HTTP status code it should produce.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
