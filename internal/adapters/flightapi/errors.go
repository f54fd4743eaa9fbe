package flightapi

import (
	"errors"
	"fmt"
)

// ErrDecode reports a response body that could not be read.
var ErrDecode = errors.New("decode flight offers")

// APIError is a non-200 answer from the offers endpoint.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("flight offers: status %d", e.StatusCode)
	}
	return fmt.Sprintf("flight offers: status %d: %s", e.StatusCode, e.Detail)
}
