package identity

import (
	"context"
	"strings"
	"sync"
)

// Directory resolves users by id.
//
// It is the only surface the realtime core needs from user persistence:
// credential rotation checks the owning user still exists, and the websocket
// handshake resolves the authenticated principal.
type Directory interface {
	GetByID(ctx context.Context, userID string) (User, error)
}

// MemoryDirectory is an in-process Directory used in tests and in-memory mode.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryDirectory constructs an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]User)}
}

// Put inserts or replaces a user.
func (d *MemoryDirectory) Put(u User) {
	if strings.TrimSpace(u.ID) == "" {
		return
	}
	d.mu.Lock()
	d.users[u.ID] = u
	d.mu.Unlock()
}

// Delete removes a user (used to simulate account deletion in tests).
func (d *MemoryDirectory) Delete(userID string) {
	d.mu.Lock()
	delete(d.users, userID)
	d.mu.Unlock()
}

// GetByID implements Directory.
func (d *MemoryDirectory) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, OpError{Op: "identity.GetByID", Kind: ErrInvalidInput, Msg: "empty user id"}
	}

	d.mu.RLock()
	u, ok := d.users[userID]
	d.mu.RUnlock()

	if !ok {
		return User{}, NotFoundError{Op: "identity.GetByID", Resource: "user"}
	}
	return u, nil
}
