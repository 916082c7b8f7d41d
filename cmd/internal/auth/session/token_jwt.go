package session

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the minimal identity envelope carried by both credentials.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// TokenManager signs and verifies the access/refresh credential pair.
//
// VerifyRefresh checks the signature only; callers must consult the durable
// store before trusting a refresh credential.
type TokenManager interface {
	IssueAccess(userID, email string, now time.Time) (token string, exp time.Time, err error)
	IssueRefresh(userID, email string, now time.Time) (token string, exp time.Time, err error)
	VerifyAccess(token string, now time.Time) (Claims, error)
	VerifyRefresh(token string, now time.Time) (Claims, error)
}

type jwtClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type hs256Manager struct {
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clockSkew     time.Duration
	accessSecret  []byte
	refreshSecret []byte
}

// NewHS256Manager builds a TokenManager signing HS256 JWTs with the
// {id, email} payload. Access and refresh credentials use separate secrets.
func NewHS256Manager(cfg Config) (TokenManager, error) {
	if err := cfg.validateSecrets(); err != nil {
		return nil, err
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, ErrConfig
	}

	return &hs256Manager{
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		clockSkew:     cfg.ClockSkew,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
	}, nil
}

func (m *hs256Manager) IssueAccess(userID, email string, now time.Time) (string, time.Time, error) {
	return m.issue(userID, email, now, m.accessTTL, m.accessSecret)
}

func (m *hs256Manager) IssueRefresh(userID, email string, now time.Time) (string, time.Time, error) {
	return m.issue(userID, email, now, m.refreshTTL, m.refreshSecret)
}

func (m *hs256Manager) issue(userID, email string, now time.Time, ttl time.Duration, secret []byte) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	exp := now.Add(ttl)
	claims := jwtClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *hs256Manager) VerifyAccess(token string, now time.Time) (Claims, error) {
	return m.verify(token, now, m.accessSecret)
}

func (m *hs256Manager) VerifyRefresh(token string, now time.Time) (Claims, error) {
	return m.verify(token, now, m.refreshSecret)
}

func (m *hs256Manager) verify(token string, now time.Time, secret []byte) (Claims, error) {
	var claims jwtClaims

	// Time-based claims are checked by hand below against the caller-supplied
	// now; the library would validate against the wall clock.
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.UserID == "" || claims.Issuer != m.issuer {
		return Claims{}, ErrInvalidToken
	}

	// Validate slightly in the future so "nbf"/"iat" tolerate minor clock
	// differences; this also makes expiry checks slightly stricter.
	at := now.Add(m.clockSkew)
	if claims.NotBefore != nil && at.Before(claims.NotBefore.Time) {
		return Claims{}, ErrInvalidToken
	}
	if claims.IssuedAt != nil && at.Before(claims.IssuedAt.Time) {
		return Claims{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}
	// Expiry is the only recoverable verification failure: it routes the
	// caller onto the refresh path.
	if at.After(claims.ExpiresAt.Time) {
		return Claims{}, ErrTokenExpired
	}

	out := Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
