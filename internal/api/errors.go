package api

import (
	"errors"
	"fmt"
)

// NetworkError is returned for transport failures and non-success responses.
// Status is zero when no response was received.
type NetworkError struct {
	Op     string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status > 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: HTTP %d: %v (%s)", e.Op, e.URL, e.Status, e.Err, e.Body)
	case e.Status > 0:
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Op, e.URL, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Status
	}
	return 0
}
