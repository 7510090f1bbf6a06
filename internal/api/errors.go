package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork wraps transport failures; the API was never reached.
	ErrNetwork = errors.New("api unreachable")
	// ErrDecode wraps success responses whose body is not the expected JSON.
	ErrDecode = errors.New("api response could not be decoded")
)

// Error is a non-2xx answer from the API. Message comes from the body's
// message field, or the HTTP status text when the body has none.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status of an API error, or 0 for any other error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

func IsBadRequest(err error) bool { return StatusOf(err) == http.StatusBadRequest }

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// MessageOf returns the API-provided message, or fallback when err is not
// an API error or carries no message of its own.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != http.StatusText(apiErr.Status) {
		return apiErr.Message
	}
	return fallback
}
