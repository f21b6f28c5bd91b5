package apiclient

import "fmt"

// TransientError reports a request that kept failing with retryable errors
// until the attempt budget ran out. It wraps the last underlying error.
type TransientError struct {
	Service  string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: request failed after %d attempts: %v", e.Service, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response body with an unexpected shape.
// Retrying cannot fix a shape mismatch, so these are never retried.
type MalformedResponseError struct {
	Service string
	Reason  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Service, e.Reason)
}

// StatusError reports a non-retryable HTTP status, i.e. client errors other
// than rate limiting.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Body)
}

// transportError marks network-level failures (connection errors, timeouts)
// that are always worth retrying.
type transportError struct {
	service string
	err     error
}

func (e *transportError) Error() string { return e.service + ": " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// retryableStatusError marks responses whose status invites another attempt:
// server errors, request timeouts, and explicit throttling.
type retryableStatusError struct {
	service    string
	statusCode int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("%s: transient status %d", e.service, e.statusCode)
}
