package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrSessionExpired is returned when an authenticated call is rejected
	// with 401 or 403. The session has already been cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized is returned when the login call itself is rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyDone is returned when a habit was already grown today.
	ErrAlreadyDone = errors.New("habit already grown today")

	// ErrGrowInFlight is returned when a grow request for the same habit is still pending.
	ErrGrowInFlight = errors.New("grow already in progress")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")

	// ErrTimeout is returned when a request does not complete in time.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork is returned when the API cannot be reached.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string // server-provided message, may be empty
	Err    error  // classification sentinel, may be nil
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Detail returns the server-provided message carried by err, or "".
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsAuthFailure reports whether status means the credentials were rejected.
func IsAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func classify(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return nil
	}
}
