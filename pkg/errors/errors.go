// Package errors defines the typed errors returned by services and rendered
// by the response package. An Error may carry a catalog key so handlers can
// localize its message for the caller.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Details map[string]string `json:"details,omitempty"`
	// Key names the i18n catalog entry for Message. Empty means untranslated.
	Key string `json:"-"`
	Err error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches by code, so clones of a sentinel satisfy errors.Is against it.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates an untranslated Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Keyed derives a translatable variant of base with its own catalog key and
// English message.
func Keyed(base *Error, key, message string) *Error {
	return &Error{Code: base.Code, Status: base.Status, Message: message, Key: key}
}

// Wrap attaches a cause under a fresh code and message.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Generic errors shared by every endpoint.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidReference   = New("INVALID_REFERENCE", http.StatusBadRequest, "malformed identifier")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Classroom errors. They share the generic codes above.
var (
	ErrNoToken            = Keyed(ErrUnauthorized, "error.noToken", "No token, authorization denied")
	ErrTeacherOnly        = Keyed(ErrForbidden, "error.teacherOnly", "Access denied: Teacher only")
	ErrStudentOnly        = Keyed(ErrForbidden, "error.studentOnly", "Access denied: Student only")
	ErrNotEnrolled        = Keyed(ErrForbidden, "error.notEnrolled", "Access denied: You are not enrolled in this class")
	ErrBadDownloadLink    = Keyed(ErrForbidden, "error.badDownloadLink", "invalid or expired download link")
	ErrEmailTaken         = Keyed(ErrConflict, "error.emailTaken", "email already registered")
	ErrMissingFields      = Keyed(ErrValidation, "error.missingFields", "Missing required fields")
	ErrNoFile             = Keyed(ErrValidation, "error.noFileProvided", "No file provided")
	ErrNoAssignmentFile   = Keyed(ErrValidation, "error.noAssignmentFile", "No assignment file provided")
	ErrEmptyProfileUpdate = Keyed(ErrValidation, "error.profileEmpty", "Please provide at least one field to update")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of err. A non-empty message replaces the original and
// drops its catalog key.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" && message != err.Message {
		clone.Message = message
		clone.Key = ""
	}
	return &clone
}

// Caused returns a copy of err wrapping cause.
func Caused(err *Error, cause error) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Err = cause
	return &clone
}

// WithDetails returns a copy of err carrying per-field messages.
func WithDetails(err *Error, details map[string]string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if len(details) > 0 {
		clone.Details = details
	}
	return &clone
}

// Internal wraps err as an internal server error with the given message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
