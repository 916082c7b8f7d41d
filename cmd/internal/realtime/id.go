package realtime

import (
	"time"

	"sociofeed/cmd/identity/ids"
)

// NewSessionID returns a ULID used as websocket session id.
func NewSessionID(now time.Time) (string, error) {
	return ids.NewULID(now)
}

// NewEnvelopeID returns a ULID used as envelope id.
// ULID is preferable to random hex for tracing and ordering in logs.
func NewEnvelopeID(now time.Time) (string, error) {
	return ids.NewULID(now)
}

// NewMessageID returns a ULID used as message id.
// This keeps IDs uniform across the system.
func NewMessageID(now time.Time) (string, error) {
	return ids.NewULID(now)
}
