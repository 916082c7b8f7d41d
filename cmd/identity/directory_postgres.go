package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory resolves users from the sociofeed.users table.
//
// Ownership model: the pgx pool is owned by the caller (app wiring).
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory constructs a Directory backed by PostgreSQL.
func NewPostgresDirectory(pool *pgxpool.Pool) (*PostgresDirectory, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresDirectory{pool: pool}, nil
}

// GetByID implements Directory.
func (d *PostgresDirectory) GetByID(ctx context.Context, userID string) (User, error) {
	if d == nil || d.pool == nil {
		return User{}, errors.New("identity: nil directory")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, OpError{Op: "identity.GetByID", Kind: ErrInvalidInput, Msg: "empty user id"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	var u User
	err := d.pool.QueryRow(ctx, `
		SELECT
			id, username, email, COALESCE(avatar_url, ''),
			is_external,
			total_followers, total_following, total_notifications,
			created_at
		FROM sociofeed.users
		WHERE id = $1
	`, userID).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.AvatarURL,
		&u.IsExternal,
		&u.TotalFollowers,
		&u.TotalFollowing,
		&u.TotalNotifications,
		&u.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: "identity.GetByID", Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
