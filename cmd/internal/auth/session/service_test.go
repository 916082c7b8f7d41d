package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"sociofeed/cmd/identity"
	"sociofeed/cmd/security/token"
)

func newTestService(t *testing.T) (*Service, *MemoryStore, *identity.MemoryDirectory) {
	t.Helper()

	cfg := testConfig()
	mgr, err := NewHS256Manager(cfg)
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	store := NewMemoryStore()
	users := identity.NewMemoryDirectory()
	users.Put(identity.User{ID: "u1", Username: "ada", Email: "ada@example.com"})

	return NewService(cfg, store, mgr, users), store, users
}

func TestService_IssueAndVerifyRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	refresh, exp, err := svc.IssueRefresh(ctx, identity.User{ID: "u1", Email: "ada@example.com"}, now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if !exp.After(now.Add(6 * 24 * time.Hour)) {
		t.Fatalf("refresh expiry too short: %v", exp)
	}

	claims, err := svc.VerifyRefresh(ctx, refresh, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("wrong user id: %s", claims.UserID)
	}
}

func TestService_RefreshWithoutDurableRecordFails(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	refresh, _, err := svc.IssueRefresh(ctx, identity.User{ID: "u1"}, now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	// Revoking deletes the record; the signature alone must no longer pass.
	if err := svc.Revoke(ctx, refresh); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := svc.VerifyRefresh(ctx, refresh, now); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	// Revoke is idempotent.
	if err := svc.Revoke(ctx, refresh); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}

	if _, err := store.GetByTokenHash(ctx, token.HashRefreshTokenHex(refresh)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("record must be gone, got %v", err)
	}
}

func TestService_ExpiredDurableRecordInvalidatesSession(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	refresh, _, err := svc.IssueRefresh(ctx, identity.User{ID: "u1"}, now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	// Force the durable record past its expiry while the signature stays valid.
	hash := token.HashRefreshTokenHex(refresh)
	row, err := store.GetByTokenHash(ctx, hash)
	if err != nil {
		t.Fatalf("GetByTokenHash: %v", err)
	}
	row.ExpiresAt = now.Add(-time.Hour)
	store.rows[hash] = row

	if _, err := svc.VerifyRefresh(ctx, refresh, now); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestService_RotateIssuesFreshAccessAndKeepsRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.IssueSession(ctx, identity.User{ID: "u1", Email: "ada@example.com"}, now)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	later := now.Add(20 * time.Minute) // access expired, refresh alive
	if _, err := svc.VerifyAccess(issued.AccessToken, later); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired access, got %v", err)
	}

	rotated, err := svc.Rotate(ctx, issued.RefreshToken, later)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if rotated.RefreshToken != issued.RefreshToken {
		t.Fatalf("rotation must reuse the refresh credential")
	}
	if _, err := svc.VerifyAccess(rotated.AccessToken, later); err != nil {
		t.Fatalf("new access credential must verify: %v", err)
	}
	if rotated.User.Username != "ada" {
		t.Fatalf("rotation must resolve the owning user")
	}
}

func TestService_RotateFailsWhenUserGone(t *testing.T) {
	svc, store, users := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.IssueSession(ctx, identity.User{ID: "u1"}, now)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	users.Delete("u1")

	if _, err := svc.Rotate(ctx, issued.RefreshToken, now); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// The durable record is removed so later attempts fail fast.
	hash := token.HashRefreshTokenHex(issued.RefreshToken)
	if _, err := store.GetByTokenHash(ctx, hash); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("record must be revoked, got %v", err)
	}
}
