// Package notify implements SocioFeed's notification fan-out engine: given a
// social or messaging event it resolves the recipient set, enforces
// per-recipient preferences, atomically persists notification rows together
// with the recipient's unread counter, and pushes realtime events to any
// connected session.
package notify

import "time"

// Type identifies a notification category (wire- and storage-stable).
type Type string

const (
	TypeFollow        Type = "FOLLOW"
	TypePostLike      Type = "POST_LIKE"
	TypeCommentLike   Type = "COMMENT_LIKE"
	TypePostComment   Type = "POST_COMMENT"
	TypeTagInPost     Type = "TAG_IN_POST"
	TypeTagInComment  Type = "TAG_IN_COMMENT"
	TypeGroupMessage  Type = "GROUP_MESSAGE"
	TypeDirectMessage Type = "DIRECT_MESSAGE"
)

// Notification is one delivered event for one recipient.
type Notification struct {
	ID      string
	Type    Type
	UserID  string // recipient
	ActorID string

	PostID    string
	CommentID string
	GroupID   string

	IsRead    bool
	CreatedAt time.Time
}

// Preferences holds one boolean per notification category for one user.
// Created alongside the user; mutated only by the owning user.
type Preferences struct {
	UserID string

	NotifyOnNewFollower   bool
	NotifyOnPostLike      bool
	NotifyOnPostComment   bool
	NotifyOnCommentLike   bool
	NotifyOnGroupMessage  bool
	NotifyOnDirectMessage bool
}

// DefaultPreferences materializes the default-allow policy: absence of a
// preference row means every category is enabled.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:                userID,
		NotifyOnNewFollower:   true,
		NotifyOnPostLike:      true,
		NotifyOnPostComment:   true,
		NotifyOnCommentLike:   true,
		NotifyOnGroupMessage:  true,
		NotifyOnDirectMessage: true,
	}
}

// Allows reports whether the category of t is enabled.
//
// Tag notifications reuse the post-comment category; there is no separate
// preference for being tagged.
func (p Preferences) Allows(t Type) bool {
	switch t {
	case TypeFollow:
		return p.NotifyOnNewFollower
	case TypePostLike:
		return p.NotifyOnPostLike
	case TypePostComment, TypeTagInPost, TypeTagInComment:
		return p.NotifyOnPostComment
	case TypeCommentLike:
		return p.NotifyOnCommentLike
	case TypeGroupMessage:
		return p.NotifyOnGroupMessage
	case TypeDirectMessage:
		return p.NotifyOnDirectMessage
	default:
		return false
	}
}
