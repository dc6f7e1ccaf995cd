package httpx

import (
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response returned by the CRM backend.
// Reason carries the backend-supplied message when the body parsed as the
// standard { "error": string } shape.
type HTTPError struct {
	StatusCode int
	Reason     string
	Body       []byte
	Header     http.Header
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("http error: status=%d", e.StatusCode)
}

// Retryable reports whether the error should be considered transient. Only
// 503 qualifies: the backend emits it while sqlite is briefly locked, every
// other status is a permanent rejection of this particular request.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusServiceUnavailable
}

// ConnError represents a transport-level failure (timeout, refused
// connection, DNS) after all retries were exhausted. It is distinct from
// HTTPError so callers can tell "the service rejected us" from "we never
// reached the service".
type ConnError struct {
	Attempts int
	Err      error
}

func (e *ConnError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
