// Package apperrors defines the error taxonomy shared by the services and the
// HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindGeneral Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	default:
		return "general"
	}
}

// FieldError localises a validation failure to one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error is the only error type returned across the service boundary.
// Message is safe to show to callers; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind != KindGeneral {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrGeneral    = &Error{Kind: KindGeneral}
)

func Validation(message string, details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NotFoundByID builds the "<resource> not found with id <id>" message.
func NotFoundByID(resource, id string) *Error {
	return NotFound(fmt.Sprintf("%s not found with id %s", resource, id))
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

// General wraps an unexpected failure. The cause is kept for logging but is
// never part of the message.
func General(err error) *Error {
	return &Error{Kind: KindGeneral, Message: "internal service error", Err: err}
}

// Wrap passes domain errors through unchanged and rewraps anything else as a
// general service error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return General(err)
}

// KindOf reports the kind of err; unclassified errors are general.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindGeneral
}
