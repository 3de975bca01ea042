package gateway

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// StatusError is a non-2xx response from the backend, carrying the
// backend-provided message when one was present in the body.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// RequestFailure means the request never produced an HTTP response
// (connection refused, timeout, cancelled context).
type RequestFailure struct {
	Err error
}

func (e *RequestFailure) Error() string {
	return "request failed: " + e.Err.Error()
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// ErrorMessage returns the backend-provided message carried by err, or
// the empty string when err has none.
func ErrorMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
