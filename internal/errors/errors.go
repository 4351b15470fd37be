package errors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeFilesystem ErrorType = "FILESYSTEM"
	ErrorTypeInvariant  ErrorType = "INVARIANT"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Details any       `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Filesystem reports a tree that is missing, unreadable or holds an entry that
// cannot be classified.
func Filesystem(message, path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeFilesystem,
		Message: message,
		Path:    path,
		Err:     err,
	}
}

// Invariant reports input that an upstream stage should never have produced.
func Invariant(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeInvariant,
		Message: message,
		Details: details,
	}
}

func ValidationError(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: details,
	}
}

func NotFound(message string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

func Internal(message string, err error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Type == t {
		return true
	}
	return IsType(e.Err, t)
}
