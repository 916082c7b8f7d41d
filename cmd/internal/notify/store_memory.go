package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"sociofeed/cmd/identity/ids"
)

// MemoryStore is an in-process Store used in tests and in-memory mode.
//
// It keeps its own recipient counters so the counter invariant can be
// asserted without a database.
type MemoryStore struct {
	mu       sync.Mutex
	prefs    map[string]Preferences
	rows     []Notification
	counters map[string]int64 // userID -> total_notifications
}

// NewMemoryStore constructs an empty in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs:    make(map[string]Preferences),
		counters: make(map[string]int64),
	}
}

// GetPreferences implements Store.
func (s *MemoryStore) GetPreferences(ctx context.Context, userID string) (Preferences, bool, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, false, err
	}

	s.mu.Lock()
	p, ok := s.prefs[userID]
	s.mu.Unlock()
	return p, ok, nil
}

// UpsertPreferences implements Store.
func (s *MemoryStore) UpsertPreferences(ctx context.Context, prefs Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if prefs.UserID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	s.prefs[prefs.UserID] = prefs
	s.mu.Unlock()
	return nil
}

// CreateNotification implements Store: row insert and counter bump under one lock.
func (s *MemoryStore) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	if err := ctx.Err(); err != nil {
		return Notification{}, err
	}
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

	s.mu.Lock()
	s.rows = append(s.rows, n)
	s.counters[n.UserID]++
	s.mu.Unlock()

	return n, nil
}

// ListForUser implements Store.
func (s *MemoryStore) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	var out []Notification
	for _, n := range s.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkAllRead implements Store.
func (s *MemoryStore) MarkAllRead(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.rows {
		if s.rows[i].UserID == userID {
			s.rows[i].IsRead = true
		}
	}
	s.mu.Unlock()
	return nil
}

// UnreadCount implements Store.
func (s *MemoryStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	s.mu.Lock()
	for _, row := range s.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	s.mu.Unlock()
	return n, nil
}

// Counter exposes the recipient counter for invariant checks in tests.
func (s *MemoryStore) Counter(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[userID]
}

// DeleteByCommentIDs removes notifications referencing any of the given
// comment ids and is used by the comment deletion cascade in memory mode.
// Each dropped row settles its recipient's counter, mirroring the row/counter
// atomicity of CreateNotification.
func (s *MemoryStore) DeleteByCommentIDs(ctx context.Context, commentIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(commentIDs))
	for _, id := range commentIDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.rows[:0]
	for _, n := range s.rows {
		if _, gone := drop[n.CommentID]; gone && n.CommentID != "" {
			s.counters[n.UserID]--
			continue
		}
		kept = append(kept, n)
	}
	s.rows = kept
	s.mu.Unlock()
	return nil
}
