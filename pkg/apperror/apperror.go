package apperror

import (
	"errors"
	"net/http"
)

// Error is a sentinel error that knows how it surfaces over HTTP.
// Wrap it with fmt.Errorf("...: %w", err) to add context; errors.Is and
// errors.As keep working through the chain.
type Error struct {
	Status  int
	Code    string
	Message string
	parent  *Error
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Sub creates an error that is also reported as its parent by errors.Is.
func (e *Error) Sub(code, message string) *Error {
	return &Error{Status: e.Status, Code: code, Message: message, parent: e}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	for p := e.parent; p != nil; p = p.parent {
		if p == target {
			return true
		}
	}
	return false
}

// StatusOf returns the HTTP status for err, or 500 when err carries none.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the machine readable code for err.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL"
}
