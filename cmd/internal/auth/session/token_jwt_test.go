package session

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = "access-secret-0123456789abcdef0123456789"
	cfg.RefreshSecret = "refresh-secret-0123456789abcdef012345678"
	return cfg
}

func TestHS256_IssueAndVerifyAccess(t *testing.T) {
	mgr, err := NewHS256Manager(testConfig())
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	now := time.Now().UTC()
	tok, exp, err := mgr.IssueAccess("01HZZZZZZZZZZZZZZZZZZZZZZZ", "a@example.com", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := mgr.VerifyAccess(tok, now.Add(1*time.Second))
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" || claims.Email != "a@example.com" {
		t.Fatalf("wrong claims: %+v", claims)
	}
}

func TestHS256_ExpiredAccessIsDistinguishable(t *testing.T) {
	mgr, err := NewHS256Manager(testConfig())
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := mgr.IssueAccess("u1", "", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	_, err = mgr.VerifyAccess(tok, now.Add(16*time.Minute))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestHS256_SecretsAreNotInterchangeable(t *testing.T) {
	mgr, err := NewHS256Manager(testConfig())
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	now := time.Now().UTC()
	refresh, _, err := mgr.IssueRefresh("u1", "a@example.com", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := mgr.VerifyAccess(refresh, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh credential must not pass access verification, got %v", err)
	}
	if _, err := mgr.VerifyRefresh(refresh, now); err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
}

func TestHS256_VerifyUsesCallerClock(t *testing.T) {
	mgr, err := NewHS256Manager(testConfig())
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	// A credential issued long ago must still verify when the caller's clock
	// sits inside its window, and must expire relative to that clock, not the
	// wall clock.
	issued := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	tok, _, err := mgr.IssueAccess("u1", "a@example.com", issued)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := mgr.VerifyAccess(tok, issued.Add(1*time.Minute)); err != nil {
		t.Fatalf("VerifyAccess inside window: %v", err)
	}
	if _, err := mgr.VerifyAccess(tok, issued.Add(16*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired past window, got %v", err)
	}
	if _, err := mgr.VerifyAccess(tok, issued.Add(-2*time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken before issuance, got %v", err)
	}
}

func TestHS256_IssuerMismatch(t *testing.T) {
	cfg := testConfig()
	mgr, err := NewHS256Manager(cfg)
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	cfg.Issuer = "someone-else"
	other, err := NewHS256Manager(cfg)
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := other.IssueAccess("u1", "a@example.com", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := mgr.VerifyAccess(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign issuer, got %v", err)
	}
}

func TestHS256_GarbageToken(t *testing.T) {
	mgr, err := NewHS256Manager(testConfig())
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}
	if _, err := mgr.VerifyAccess("not-a-jwt", time.Now().UTC()); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
