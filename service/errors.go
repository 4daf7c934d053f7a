package service

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// ErrorType classifies an AppError for transport mapping.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error type onto a response code.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewForbiddenError(format string, args ...interface{}) *AppError {
	return &AppError{Type: ErrorTypeForbidden, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorizedError(format string, args ...interface{}) *AppError {
	return &AppError{Type: ErrorTypeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// IsType reports whether err wraps an AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// notFoundOr converts gorm's missing-row error into a NotFound AppError and
// anything else into an Internal one.
func notFoundOr(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("%s %v not found", what, id)
	}
	return NewInternalError(fmt.Sprintf("failed to load %s", what), err)
}
