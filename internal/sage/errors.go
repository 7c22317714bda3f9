package sage

import (
	"errors"
	"fmt"
)

// Common Sage client errors
var (
	// ErrMissingConfig is returned when the API base URL or token is not
	// configured. This is detected before any network call is attempted.
	ErrMissingConfig = errors.New("missing Sage API URL or token")

	// ErrRequestFailed is returned when the HTTP request could not be
	// completed (timeout, connection refused, DNS failure).
	ErrRequestFailed = errors.New("sage API request failed")

	// ErrBadStatus is returned for non-2xx HTTP responses.
	ErrBadStatus = errors.New("sage API returned a non-success status")

	// ErrBadResponse is returned when the response body cannot be decoded.
	ErrBadResponse = errors.New("sage API returned a malformed response")
)

// APIError wraps errors with additional context about a failed Sage call.
type APIError struct {
	// Op is the operation that failed (e.g., "SearchInvoices").
	Op string

	// Err is the underlying error.
	Err error

	// StatusCode is the HTTP status code, if a response was received.
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sage: %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sage: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(op string, err error, status int) *APIError {
	return &APIError{Op: op, Err: err, StatusCode: status}
}
