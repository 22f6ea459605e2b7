package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure that already knows how it should surface to an HTTP caller.
// Message is safe to return to clients; Err carries the internal cause for logs.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message, nil)
}

func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message, nil)
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message, nil)
}

func Internal(code, message string, err error) *Error {
	return New(http.StatusInternalServerError, code, message, err)
}

// As extracts the classified error from a chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// StatusOf maps err to an HTTP status; unclassified errors are 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if ae, ok := As(err); ok && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err was classified as 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
