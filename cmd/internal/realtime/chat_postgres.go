package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresChatStore persists messages and groups in PostgreSQL.
//
// Ownership model: the pgx pool is owned by the caller (app wiring).
type PostgresChatStore struct {
	pool *pgxpool.Pool
}

// NewPostgresChatStore constructs a Postgres-backed ChatStore.
func NewPostgresChatStore(pool *pgxpool.Pool) (*PostgresChatStore, error) {
	if pool == nil {
		return nil, errors.New("realtime: nil pool")
	}
	return &PostgresChatStore{pool: pool}, nil
}

// CreateMessage implements ChatStore.
func (s *PostgresChatStore) CreateMessage(ctx context.Context, msg Message) error {
	if msg.ID == "" || msg.SenderID == "" || msg.Content == "" {
		return ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sociofeed.messages (
			id, chat_id, sender_id, receiver_id, group_id, content, is_read, created_at, updated_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, FALSE, $7, $8)
	`, msg.ID, msg.ChatID, msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Content, msg.CreatedAt, msg.UpdatedAt)
	return err
}

// GetMessage implements ChatStore.
func (s *PostgresChatStore) GetMessage(ctx context.Context, messageID string) (Message, error) {
	if messageID == "" {
		return Message{}, ErrInvalidInput
	}

	var msg Message
	err := s.pool.QueryRow(ctx, `
		SELECT id, chat_id, sender_id, COALESCE(receiver_id, ''), COALESCE(group_id, ''),
		       content, is_read, created_at, updated_at
		FROM sociofeed.messages
		WHERE id = $1
	`, messageID).Scan(
		&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ReceiverID, &msg.GroupID,
		&msg.Content, &msg.IsRead, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// UpdateMessageContent implements ChatStore.
func (s *PostgresChatStore) UpdateMessageContent(ctx context.Context, messageID, content string, updatedAt time.Time) error {
	if messageID == "" || content == "" {
		return ErrInvalidInput
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE sociofeed.messages SET content = $2, updated_at = $3 WHERE id = $1
	`, messageID, content, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessage implements ChatStore.
func (s *PostgresChatStore) DeleteMessage(ctx context.Context, messageID string) error {
	if messageID == "" {
		return ErrInvalidInput
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sociofeed.messages WHERE id = $1
	`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchGroupActivity implements ChatStore.
func (s *PostgresChatStore) TouchGroupActivity(ctx context.Context, groupID string, at time.Time) error {
	if groupID == "" {
		return ErrInvalidInput
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE sociofeed.groups SET last_activity_at = $2 WHERE id = $1
	`, groupID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GroupMemberIDs implements ChatStore.
func (s *PostgresChatStore) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM sociofeed.group_members WHERE group_id = $1
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// ListMessages implements ChatStore.
func (s *PostgresChatStore) ListMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	if chatID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, chat_id, sender_id, COALESCE(receiver_id, ''), COALESCE(group_id, ''),
		       content, is_read, created_at, updated_at
		FROM (
			SELECT * FROM sociofeed.messages
			WHERE chat_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) latest
		ORDER BY created_at ASC
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ReceiverID, &msg.GroupID,
			&msg.Content, &msg.IsRead, &msg.CreatedAt, &msg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// MarkRead implements ChatStore.
func (s *PostgresChatStore) MarkRead(ctx context.Context, chatID, userID string) error {
	if chatID == "" || userID == "" {
		return ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE sociofeed.messages
		SET is_read = TRUE
		WHERE chat_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, chatID, userID)
	return err
}
