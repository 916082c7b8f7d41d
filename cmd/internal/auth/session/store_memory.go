package session

import (
	"context"
	"sync"
	"time"

	"sociofeed/cmd/identity/ids"
)

// MemoryStore is an in-process Store used in tests and in-memory mode.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Row // token hash -> row
}

// NewMemoryStore constructs an empty in-memory refresh credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if userID == "" || tokenHash == "" {
		return "", ErrInvalidToken
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.rows[tokenHash] = Row{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	s.mu.Unlock()

	return id, nil
}

// GetByTokenHash implements Store.
func (s *MemoryStore) GetByTokenHash(ctx context.Context, tokenHash string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}

	s.mu.Lock()
	row, ok := s.rows[tokenHash]
	s.mu.Unlock()

	if !ok {
		return Row{}, ErrSessionNotFound
	}
	return row, nil
}

// DeleteByTokenHash implements Store. Absent rows are not an error.
func (s *MemoryStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.rows, tokenHash)
	s.mu.Unlock()
	return nil
}

// DeleteForUser implements Store.
func (s *MemoryStore) DeleteForUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for h, row := range s.rows {
		if row.UserID == userID {
			delete(s.rows, h)
		}
	}
	s.mu.Unlock()
	return nil
}

// DeleteExpired implements Store.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	s.mu.Lock()
	for h, row := range s.rows {
		if !row.ExpiresAt.After(now) {
			delete(s.rows, h)
			n++
		}
	}
	s.mu.Unlock()
	return n, nil
}
