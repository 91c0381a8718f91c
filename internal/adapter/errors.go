package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Authenticate on 401 or 403.
	ErrInvalidCredentials = errors.New("invalid upstream credentials")

	// ErrUnauthenticated is returned by Call on 401.
	ErrUnauthenticated = errors.New("upstream session token rejected")

	// ErrMissingToken is returned when a successful login answer carries no token.
	ErrMissingToken = errors.New("upstream login response has no token")

	// ErrInvalidAddress is returned for an unusable upstream base URL.
	ErrInvalidAddress = errors.New("invalid upstream address")
)

// HTTPError is an unexpected upstream status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream http %d", e.Status)
	}
	return fmt.Sprintf("upstream http %d: %s", e.Status, e.Body)
}
