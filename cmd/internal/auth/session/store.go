package session

import (
	"context"
	"time"
)

// Row mirrors the sociofeed.refresh_tokens row backing one login session.
// The plain refresh credential is never persisted; only its hash is stored.
type Row struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store abstracts persistence for refresh credentials.
//
// Revocation is deletion: a missing row means the session is gone. Delete
// operations are idempotent by contract.
type Store interface {
	// Create records a refresh credential for a user.
	Create(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time) (id string, err error)

	// GetByTokenHash loads the row for a presented credential.
	// Returns ErrSessionNotFound when absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (Row, error)

	// DeleteByTokenHash revokes a single credential. Absent rows are not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteForUser revokes every credential of a user (logout everywhere).
	DeleteForUser(ctx context.Context, userID string) error

	// DeleteExpired removes rows past their expiry; returns the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
