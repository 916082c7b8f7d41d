package notify

import (
	"context"
	"errors"
)

var (
	// ErrInvalidInput is returned for structurally invalid notifications.
	ErrInvalidInput = errors.New("notify: invalid input")
)

// Store persists notifications and preferences.
//
// CreateNotification must be atomic with the recipient's counter increment:
// the notification row and the total_notifications bump both land or neither
// does. A partial state is a correctness violation, not a degraded mode.
type Store interface {
	// GetPreferences returns the preference row for a user.
	// found=false means no row exists; callers apply DefaultPreferences.
	GetPreferences(ctx context.Context, userID string) (prefs Preferences, found bool, err error)

	// UpsertPreferences writes the preference row for a user.
	UpsertPreferences(ctx context.Context, prefs Preferences) error

	// CreateNotification inserts the row and increments the recipient's
	// unread counter in one atomic unit. Returns the stored row with its id
	// and timestamp filled in.
	CreateNotification(ctx context.Context, n Notification) (Notification, error)

	// ListForUser returns the most recent notifications, newest first.
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)

	// MarkAllRead flips the read flag on every notification of a user.
	MarkAllRead(ctx context.Context, userID string) error

	// UnreadCount returns the number of unread notifications for a user.
	UnreadCount(ctx context.Context, userID string) (int64, error)
}
