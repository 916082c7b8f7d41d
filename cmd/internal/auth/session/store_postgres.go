package session

import (
	"context"
	"errors"
	"time"

	"sociofeed/cmd/identity/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists refresh credentials in sociofeed.refresh_tokens.
//
// Ownership model: the pgx pool is owned by the caller (app wiring).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time) (string, error) {
	if s == nil || s.pool == nil {
		return "", errors.New("session: nil store")
	}
	if userID == "" || tokenHash == "" {
		return "", ErrInvalidToken
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return "", err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sociofeed.refresh_tokens (id, user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, userID, tokenHash, now, expiresAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByTokenHash implements Store.
func (s *PostgresStore) GetByTokenHash(ctx context.Context, tokenHash string) (Row, error) {
	if s == nil || s.pool == nil {
		return Row{}, errors.New("session: nil store")
	}

	var row Row
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at
		FROM sociofeed.refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&row.ID, &row.UserID, &row.TokenHash, &row.CreatedAt, &row.ExpiresAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

// DeleteByTokenHash implements Store. Absent rows are not an error.
func (s *PostgresStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if s == nil || s.pool == nil {
		return errors.New("session: nil store")
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM sociofeed.refresh_tokens WHERE token_hash = $1
	`, tokenHash)
	return err
}

// DeleteForUser implements Store.
func (s *PostgresStore) DeleteForUser(ctx context.Context, userID string) error {
	if s == nil || s.pool == nil {
		return errors.New("session: nil store")
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM sociofeed.refresh_tokens WHERE user_id = $1
	`, userID)
	return err
}

// DeleteExpired implements Store.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, errors.New("session: nil store")
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sociofeed.refresh_tokens WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
