package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	// origin is the per-entity sentinel this error was derived from, nil for
	// the generic class sentinels.
	origin *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a generic sentinel by status code, so ErrProgressNotFound still
// satisfies errors.Is(err, ErrNotFound). A per-entity sentinel only matches
// errors derived from itself: ErrEmailTaken is not ErrReminderLogged.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.origin == nil {
		return t.Code == e.Code
	}
	return e.origin == t.origin
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new per-entity error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	n := &Error{Code: e.Code, Message: msg, Err: e.Err}
	n.origin = n
	return n
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err, origin: e.origin}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}
)

// Per-entity sentinels.
var (
	ErrProgressNotFound    = ErrNotFound.WithMessage("reading progress not found")
	ErrUserStatsNotFound   = ErrNotFound.WithMessage("user stats not found")
	ErrLibraryItemNotFound = ErrNotFound.WithMessage("library item not found")
	ErrUserNotFound        = ErrNotFound.WithMessage("user not found")
	ErrEmailTaken          = ErrAlreadyExists.WithMessage("email already registered")
	ErrReminderLogged      = ErrAlreadyExists.WithMessage("reminder already logged")
)
