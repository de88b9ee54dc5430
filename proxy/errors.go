package proxy

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates a presented unified secret that does not
	// match the stored one. Deliberately carries no detail.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrExpired indicates a credential past its expiry instant
	ErrExpired = errors.New("credential expired")

	// ErrBadBody indicates a request body that is not a JSON object
	ErrBadBody = errors.New("request body must be a JSON object")

	// ErrUpstreamUnavailable indicates a transport-level failure reaching
	// the upstream: connection refused, DNS failure, client timeout.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError carries an upstream HTTP error status and its verbatim
// body so handlers can relay both unchanged.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}
