package realtime

import "errors"

var (
	// ErrInvalidInput is returned for structurally invalid message operations.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced message or group is absent.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a requester does not own the message.
	// Absent messages map here too so ownership cannot be probed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEditWindowExpired is returned when an edit arrives after the fixed window.
	ErrEditWindowExpired = errors.New("edit window expired")
)
