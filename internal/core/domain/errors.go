package domain

import "errors"

// Sentinel errors shared across services and repositories. The API layer maps
// them to HTTP status codes in a single place (internal/api/error_handler.go);
// anything not listed there is treated as unexpected and surfaced as a
// generic 500.
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers must never be able to tell the two apart; only
	// internal logs may distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is internal to the credential lookup. It never
	// reaches a client: the validator converts it into
	// ErrInvalidCredentials after burning a dummy verification cycle.
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadySubscribed reports a signup with an email that already has
	// a subscriber row.
	ErrAlreadySubscribed = errors.New("email is already subscribed")

	// ErrTokenNotFound covers unknown and expired confirmation tokens
	// alike; the caller maps it to an authorization failure.
	ErrTokenNotFound = errors.New("subscription token unknown or expired")

	// ErrHashFormat means a stored password hash could not be parsed.
	// This is data corruption, not a bad password.
	ErrHashFormat = errors.New("stored password hash is malformed")
)

// ValidationError marks client-correctable input problems (bad form data,
// malformed tokens, weak passwords). The central error handler renders it
// as a 400 with the message intact.
type ValidationError struct {
	msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string { return e.msg }
