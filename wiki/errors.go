package wiki

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by Client.
var (
	ErrInvalidTarget = errors.New("invalid request target")
	ErrEmptyBody     = errors.New("empty response body")
)

// DecodeError reports a response body that could not be understood.
type DecodeError struct {
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode response: %s: %v", e.Message, e.Err)
	}
	return "failed to decode response: " + e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure to complete the HTTP exchange, including
// timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsPermanent reports whether retrying the same request cannot succeed:
// malformed targets and client errors other than 408 and 429.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidTarget) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
			return false
		}
		return code >= 400 && code < 500
	}

	return false
}
