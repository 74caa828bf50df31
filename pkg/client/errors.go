package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no bearer credential is available.
var ErrUnauthenticated = errors.New("not authenticated")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Status     string // status text, e.g. "Not Found"
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsUnauthenticated returns true if err means the caller has no usable credential,
// either locally (no session) or as reported by the API (401).
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || IsStatus(err, 401)
}
