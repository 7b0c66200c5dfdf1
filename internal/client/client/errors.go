package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrServer         = errors.New("server error")
)

// APIError is a rejection reported by the server.
type APIError struct {
	Kind    string
	Message string
	err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %s", e.err, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }
