// Package common defines shared constants and sentinel errors used across
// the authkeeper server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors. ErrorInternal wraps unexpected collaborator
	// failures; transports report it as a generic server error.
	ErrorInternal = errors.New("internal error")

	// Authentication errors surfaced to callers.
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, unsigned, tampered and expired tokens alike.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidInput rejects a request before any work is done, e.g. an empty email.
	ErrInvalidInput = errors.New("invalid input")

	// ErrHashing is returned for unusable password input or a malformed digest.
	ErrHashing = errors.New("password hashing error")
)
