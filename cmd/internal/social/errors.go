package social

import "errors"

var (
	// ErrInvalidInput is returned for structurally invalid operations.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced row is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for duplicate follows and likes.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized is returned when a requester does not own the resource.
	ErrUnauthorized = errors.New("unauthorized")
)
