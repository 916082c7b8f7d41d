package session

import "errors"

var (
	// ErrInvalidToken is returned when a credential fails signature or claim verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when an access credential is past its expiry.
	// It is the signal that drives the refresh path; all other verification
	// failures are terminal.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionNotFound is returned when a refresh credential has no live durable record.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the durable refresh record is expired.
	ErrSessionExpired = errors.New("session expired")

	// ErrUserNotFound is returned when the user owning a refresh credential no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
