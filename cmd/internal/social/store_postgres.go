package social

import (
	"context"
	"errors"
	"time"

	"sociofeed/cmd/identity/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the social graph in PostgreSQL.
//
// Ownership model: the pgx pool is owned by the caller (app wiring).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed social store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("social: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}

func (s *PostgresStore) begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
}

// CreateFollow implements Store: edge insert plus both counter bumps in one
// transaction.
func (s *PostgresStore) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return ErrInvalidInput
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO sociofeed.follows (follower_id, followee_id) VALUES ($1, $2)
	`, followerID, followeeID); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.users SET total_followers = total_followers + 1 WHERE id = $1
	`, followeeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.users SET total_following = total_following + 1 WHERE id = $1
	`, followerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteFollow implements Store.
func (s *PostgresStore) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM sociofeed.follows WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.users SET total_followers = total_followers - 1 WHERE id = $1
	`, followeeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.users SET total_following = total_following - 1 WHERE id = $1
	`, followerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetPost implements Store.
func (s *PostgresStore) GetPost(ctx context.Context, postID string) (Post, error) {
	var p Post
	err := s.pool.QueryRow(ctx, `
		SELECT id, author_id, total_likes, total_comments, created_at
		FROM sociofeed.posts WHERE id = $1
	`, postID).Scan(&p.ID, &p.AuthorID, &p.TotalLikes, &p.TotalComments, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

// CreatePostLike implements Store.
func (s *PostgresStore) CreatePostLike(ctx context.Context, postID, userID string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO sociofeed.post_likes (post_id, user_id) VALUES ($1, $2)
	`, postID, userID); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE sociofeed.posts SET total_likes = total_likes + 1 WHERE id = $1
	`, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// DeletePostLike implements Store.
func (s *PostgresStore) DeletePostLike(ctx context.Context, postID, userID string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM sociofeed.post_likes WHERE post_id = $1 AND user_id = $2
	`, postID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.posts SET total_likes = total_likes - 1 WHERE id = $1
	`, postID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetComment implements Store.
func (s *PostgresStore) GetComment(ctx context.Context, commentID string) (Comment, error) {
	var c Comment
	err := s.pool.QueryRow(ctx, `
		SELECT id, post_id, author_id, COALESCE(parent_id, ''), content, total_likes, created_at
		FROM sociofeed.comments WHERE id = $1
	`, commentID).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.TotalLikes, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// CreateCommentLike implements Store.
func (s *PostgresStore) CreateCommentLike(ctx context.Context, commentID, userID string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO sociofeed.comment_likes (comment_id, user_id) VALUES ($1, $2)
	`, commentID, userID); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE sociofeed.comments SET total_likes = total_likes + 1 WHERE id = $1
	`, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// DeleteCommentLike implements Store.
func (s *PostgresStore) DeleteCommentLike(ctx context.Context, commentID, userID string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM sociofeed.comment_likes WHERE comment_id = $1 AND user_id = $2
	`, commentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.comments SET total_likes = total_likes - 1 WHERE id = $1
	`, commentID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateComment implements Store.
func (s *PostgresStore) CreateComment(ctx context.Context, c Comment, taggedUserIDs []string, now time.Time) (Comment, error) {
	if c.PostID == "" || c.AuthorID == "" || c.Content == "" {
		return Comment{}, ErrInvalidInput
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Comment{}, err
	}
	c.ID = id
	c.CreatedAt = now

	tx, err := s.begin(ctx)
	if err != nil {
		return Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ParentID != "" {
		var parentPost string
		err := tx.QueryRow(ctx, `
			SELECT post_id FROM sociofeed.comments WHERE id = $1
		`, c.ParentID).Scan(&parentPost)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && parentPost != c.PostID) {
			return Comment{}, ErrNotFound
		}
		if err != nil {
			return Comment{}, err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sociofeed.comments (id, post_id, author_id, parent_id, content, total_likes, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, 0, $6)
	`, c.ID, c.PostID, c.AuthorID, c.ParentID, c.Content, c.CreatedAt); err != nil {
		return Comment{}, err
	}

	for _, userID := range taggedUserIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sociofeed.comment_tags (comment_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, c.ID, userID); err != nil {
			return Comment{}, err
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE sociofeed.posts SET total_comments = total_comments + 1 WHERE id = $1
	`, c.PostID)
	if err != nil {
		return Comment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Comment{}, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// CreatePostTag implements Store.
func (s *PostgresStore) CreatePostTag(ctx context.Context, postID, taggedUserID string) error {
	if postID == "" || taggedUserID == "" {
		return ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sociofeed.post_tags (post_id, user_id) VALUES ($1, $2)
	`, postID, taggedUserID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// DeleteCommentCascade implements Store. The subtree is collected with a
// recursive CTE and everything referencing it (likes, tags, notifications,
// the comments themselves) is removed in one transaction; the post's comment
// counter drops by the total number of comments removed.
func (s *PostgresStore) DeleteCommentCascade(ctx context.Context, commentID string) ([]string, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var postID string
	err = tx.QueryRow(ctx, `
		SELECT post_id FROM sociofeed.comments WHERE id = $1
	`, commentID).Scan(&postID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM sociofeed.comments WHERE id = $1
			UNION ALL
			SELECT c.id FROM sociofeed.comments c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree
	`, commentID)
	if err != nil {
		return nil, err
	}

	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM sociofeed.comment_likes WHERE comment_id = ANY($1)`,
		`DELETE FROM sociofeed.comment_tags WHERE comment_id = ANY($1)`,
	} {
		if _, err := tx.Exec(ctx, stmt, removed); err != nil {
			return nil, err
		}
	}

	// Notification rows carry a per-recipient counter on users; drop the rows
	// and settle each recipient's counter in the same statement so the two can
	// never diverge.
	if _, err := tx.Exec(ctx, `
		WITH gone AS (
			DELETE FROM sociofeed.notifications WHERE comment_id = ANY($1)
			RETURNING user_id
		)
		UPDATE sociofeed.users u
		SET total_notifications = u.total_notifications - g.n
		FROM (SELECT user_id, COUNT(*) AS n FROM gone GROUP BY user_id) g
		WHERE u.id = g.user_id
	`, removed); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM sociofeed.comments WHERE id = ANY($1)
	`, removed); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sociofeed.posts SET total_comments = total_comments - $2 WHERE id = $1
	`, postID, len(removed)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}
