package integration

import (
	"fmt"
	"strings"
)

// maxErrorBody bounds how much of a response body is quoted in error messages.
const maxErrorBody = 512

// NetworkError reports a request that never produced an HTTP response:
// DNS failure, refused connection, timeout, or a body that could not be read.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network failure: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response other than 429. It is never retried.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// RateLimitError reports that every attempt at a request was answered with
// HTTP 429.
type RateLimitError struct {
	Method   string
	URL      string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s %s: rate limit exceeded after %d attempts", e.Method, e.URL, e.Attempts)
}
