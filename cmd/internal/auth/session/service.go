package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"sociofeed/cmd/identity"
	"sociofeed/cmd/security/token"
)

// Service implements the high-level credential operations for SocioFeed.
//
// It issues the access/refresh pair, validates access credentials, verifies
// refresh credentials against the durable record, revokes sessions, and
// performs access-credential rotation for the refresh gate.
type Service struct {
	cfg    Config
	tokens TokenManager
	store  Store
	users  identity.Directory
}

// Issued is the result of issuing or rotating a session.
type Issued struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
	User         identity.User
}

// NewService constructs a Service with the provided configuration, store,
// token manager, and user directory.
func NewService(cfg Config, store Store, tokens TokenManager, users identity.Directory) *Service {
	return &Service{cfg: cfg, store: store, tokens: tokens, users: users}
}

// IssueAccess signs a short-lived access credential. No side effects.
func (s *Service) IssueAccess(u identity.User, now time.Time) (string, time.Time, error) {
	return s.tokens.IssueAccess(u.ID, u.Email, now)
}

// IssueRefresh signs a refresh credential and durably records it so it can
// later be validated and revoked.
func (s *Service) IssueRefresh(ctx context.Context, u identity.User, now time.Time) (string, time.Time, error) {
	plain, exp, err := s.tokens.IssueRefresh(u.ID, u.Email, now)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := s.store.Create(ctx, now, u.ID, token.HashRefreshTokenHex(plain), exp); err != nil {
		return "", time.Time{}, err
	}
	return plain, exp, nil
}

// IssueSession issues a fresh access/refresh pair (login, signup).
func (s *Service) IssueSession(ctx context.Context, u identity.User, now time.Time) (Issued, error) {
	access, accessExp, err := s.IssueAccess(u, now)
	if err != nil {
		return Issued{}, err
	}
	refresh, refreshExp, err := s.IssueRefresh(ctx, u, now)
	if err != nil {
		return Issued{}, err
	}
	return Issued{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
		User:         u,
	}, nil
}

// VerifyAccess verifies an access credential's signature and expiry.
// Returns ErrTokenExpired when the only problem is expiry.
func (s *Service) VerifyAccess(accessToken string, now time.Time) (Claims, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return Claims{}, ErrInvalidToken
	}
	return s.tokens.VerifyAccess(accessToken, now)
}

// VerifyRefresh verifies a refresh credential.
//
// The signature is a fast pre-check; the durable record is the source of
// truth. A valid signature with a missing or expired record fails with
// ErrSessionNotFound / ErrSessionExpired and invalidates the whole session.
func (s *Service) VerifyRefresh(ctx context.Context, refreshToken string, now time.Time) (Claims, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	// Basic sanity bounds to avoid pathological inputs.
	if refreshToken == "" || len(refreshToken) > 4096 {
		return Claims{}, ErrInvalidToken
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken, now)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	row, err := s.store.GetByTokenHash(ctx, token.HashRefreshTokenHex(refreshToken))
	if err != nil {
		return Claims{}, err
	}
	if row.UserID != claims.UserID {
		return Claims{}, ErrInvalidToken
	}
	if !row.ExpiresAt.After(now) {
		return Claims{}, ErrSessionExpired
	}

	return claims, nil
}

// Revoke deletes the durable record for a refresh credential.
// Revoking an absent credential is not an error.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.store.DeleteByTokenHash(ctx, token.HashRefreshTokenHex(refreshToken))
}

// RevokeAllForUser deletes every refresh credential of a user.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.store.DeleteForUser(ctx, userID)
}

// Rotate mints a new access credential from a valid refresh credential.
//
// The refresh credential is reused, not re-issued: its durable record keeps
// its original expiry, so the session still ends 7 days after login.
// Rotation fails when the durable record is gone/expired or the owning user
// no longer exists; in both cases the durable record is removed so later
// attempts fail fast.
func (s *Service) Rotate(ctx context.Context, refreshToken string, now time.Time) (Issued, error) {
	claims, err := s.VerifyRefresh(ctx, refreshToken, now)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			_ = s.store.DeleteByTokenHash(ctx, token.HashRefreshTokenHex(refreshToken))
		}
		return Issued{}, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			_ = s.Revoke(ctx, refreshToken)
			return Issued{}, ErrUserNotFound
		}
		return Issued{}, err
	}

	access, accessExp, err := s.IssueAccess(u, now)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refreshToken,
		RefreshExp:   claims.ExpiresAt,
		User:         u,
	}, nil
}
