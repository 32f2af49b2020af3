package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthMissing        = errors.New("auth missing: no credential available")
	ErrTransportLoss      = errors.New("transport lost")
	ErrMalformedMessage   = errors.New("malformed stream message")
	ErrValidation         = errors.New("validation error")
	ErrServerRejection    = errors.New("rejected by server")
	ErrNetworkFailure     = errors.New("network failure")
	ErrSubmissionInFlight = errors.New("a bid submission is already in flight")
	ErrConnectionClosed   = errors.New("stream connection closed")
)

// ServerError is a non-2xx answer from the auction API.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServerRejection
}
