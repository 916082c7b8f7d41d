package notify

import (
	"context"
	"errors"
	"time"

	"sociofeed/cmd/identity/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists notifications and preferences in PostgreSQL.
//
// Ownership model: the pgx pool is owned by the caller (app wiring).
//
// Concurrency model: the notification insert and the counter increment run in
// one transaction, and the increment is a single atomic field update. This is
// what keeps counters correct across multiple backend processes; no
// application-level read-modify-write is involved.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed notification store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("notify: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// GetPreferences implements Store.
func (s *PostgresStore) GetPreferences(ctx context.Context, userID string) (Preferences, bool, error) {
	var p Preferences
	err := s.pool.QueryRow(ctx, `
		SELECT user_id,
		       notify_on_new_follower, notify_on_post_like, notify_on_post_comment,
		       notify_on_comment_like, notify_on_group_message, notify_on_direct_message
		FROM sociofeed.notification_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.NotifyOnNewFollower,
		&p.NotifyOnPostLike,
		&p.NotifyOnPostComment,
		&p.NotifyOnCommentLike,
		&p.NotifyOnGroupMessage,
		&p.NotifyOnDirectMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, err
	}
	return p, true, nil
}

// UpsertPreferences implements Store.
func (s *PostgresStore) UpsertPreferences(ctx context.Context, prefs Preferences) error {
	if prefs.UserID == "" {
		return ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sociofeed.notification_preferences (
			user_id,
			notify_on_new_follower, notify_on_post_like, notify_on_post_comment,
			notify_on_comment_like, notify_on_group_message, notify_on_direct_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			notify_on_new_follower   = EXCLUDED.notify_on_new_follower,
			notify_on_post_like      = EXCLUDED.notify_on_post_like,
			notify_on_post_comment   = EXCLUDED.notify_on_post_comment,
			notify_on_comment_like   = EXCLUDED.notify_on_comment_like,
			notify_on_group_message  = EXCLUDED.notify_on_group_message,
			notify_on_direct_message = EXCLUDED.notify_on_direct_message
	`, prefs.UserID,
		prefs.NotifyOnNewFollower, prefs.NotifyOnPostLike, prefs.NotifyOnPostComment,
		prefs.NotifyOnCommentLike, prefs.NotifyOnGroupMessage, prefs.NotifyOnDirectMessage)
	return err
}

// CreateNotification implements Store: one transaction for the row and the counter.
func (s *PostgresStore) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == "" || n.ActorID == "" || n.Type == "" {
		return Notification{}, ErrInvalidInput
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	id, err := ids.NewULID(n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}
	n.ID = id

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return Notification{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO sociofeed.notifications (
			id, type, user_id, actor_id, post_id, comment_id, group_id, is_read, created_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), FALSE, $8)
	`, n.ID, string(n.Type), n.UserID, n.ActorID, n.PostID, n.CommentID, n.GroupID, n.CreatedAt); err != nil {
		return Notification{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.users
		SET total_notifications = total_notifications + 1
		WHERE id = $1
	`, n.UserID); err != nil {
		return Notification{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// ListForUser implements Store.
func (s *PostgresStore) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, type, user_id, actor_id,
		       COALESCE(post_id, ''), COALESCE(comment_id, ''), COALESCE(group_id, ''),
		       is_read, created_at
		FROM sociofeed.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.UserID, &n.ActorID, &n.PostID, &n.CommentID, &n.GroupID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = Type(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkAllRead implements Store.
func (s *PostgresStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sociofeed.notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	return err
}

// UnreadCount implements Store.
func (s *PostgresStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM sociofeed.notifications WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&n)
	return n, err
}
