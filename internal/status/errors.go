package status

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks transport-level failures, including transport timeouts.
	ErrNetwork = errors.New("network failure")
	// ErrMalformed marks payloads the normalizer cannot reconcile.
	ErrMalformed = errors.New("malformed status payload")
)

// HTTPError reports a non-2xx response from the status endpoint.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("status endpoint returned %d", e.StatusCode)
}

// HTTPStatusCode extracts the status code from an error chain.
func HTTPStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
