package client

import (
	"errors"
	"fmt"
)

// ErrStaleResponse is returned by BookingFlow.SelectDate when another date was
// selected while the request was in flight. The response has been discarded.
var ErrStaleResponse = errors.New("client: response superseded by a newer date selection")

// ValidationError is input rejected before or by the server (HTTP 400).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ConflictError is HTTP 409: the slot was taken or the doctor already reviewed.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Message }

// AuthError is HTTP 401. The session has already been torn down when it is returned.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Message }

// NotFoundError is HTTP 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Message }

// UnknownError covers transport failures and every other status.
type UnknownError struct {
	Status  int
	Message string
	Err     error
}

func (e *UnknownError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return "request failed: " + e.Err.Error()
	case e.Err != nil:
		return fmt.Sprintf("status %d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// errorFor maps a non-2xx envelope onto the error taxonomy.
func errorFor(status int, msg, detail string) error {
	if msg == "" {
		msg = detail
	}
	switch status {
	case 400:
		return &ValidationError{Message: msg}
	case 401:
		return &AuthError{Message: msg}
	case 404:
		return &NotFoundError{Message: msg}
	case 409:
		return &ConflictError{Message: msg}
	}
	return &UnknownError{Status: status, Message: msg}
}
