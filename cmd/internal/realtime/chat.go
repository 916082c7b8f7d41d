package realtime

import (
	"context"
	"strings"
	"time"
)

// Message is a persisted chat message. Exactly one of ReceiverID / GroupID is
// set: direct messages carry the recipient, group messages carry the group.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	ReceiverID string
	GroupID    string
	Content    string
	IsRead     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Group is a named multi-member conversation.
type Group struct {
	ID             string
	Name           string
	OwnerID        string
	LastActivityAt time.Time
}

// ChatStore is the durable surface the conversation router depends on.
//
// Implementations must treat each method as a single atomic step: a message
// insert that also bumps group activity must not be observable half-done.
type ChatStore interface {
	// CreateMessage persists a new message.
	CreateMessage(ctx context.Context, msg Message) error

	// GetMessage fetches a message by id. Absence is ErrNotFound.
	GetMessage(ctx context.Context, messageID string) (Message, error)

	// UpdateMessageContent rewrites content and bumps UpdatedAt.
	UpdateMessageContent(ctx context.Context, messageID, content string, updatedAt time.Time) error

	// DeleteMessage removes a message. Deleting an absent message is ErrNotFound.
	DeleteMessage(ctx context.Context, messageID string) error

	// TouchGroupActivity bumps the group's last-activity timestamp.
	// Unknown groups are ErrNotFound.
	TouchGroupActivity(ctx context.Context, groupID string, at time.Time) error

	// GroupMemberIDs lists member user ids for a group, owner included.
	GroupMemberIDs(ctx context.Context, groupID string) ([]string, error)

	// ListMessages returns messages for a chat id ordered oldest first.
	ListMessages(ctx context.Context, chatID string, limit int) ([]Message, error)

	// MarkRead flags every message in the chat addressed to userID as read.
	MarkRead(ctx context.Context, chatID, userID string) error
}

// CanonicalDirectID derives the chat id shared by both ends of a direct
// conversation: the two user ids sorted lexicographically, joined by ":".
// Both participants compute the same id regardless of who initiates.
func CanonicalDirectID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// DirectIDPeers splits a canonical direct chat id back into its two user ids.
// Returns false for ids that are not direct chat ids.
func DirectIDPeers(chatID string) (string, string, bool) {
	a, b, ok := strings.Cut(chatID, ":")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}
