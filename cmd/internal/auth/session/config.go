package session

import (
	"os"
	"time"
)

// Config defines all runtime configuration for the credential subsystem.
//
// It controls access/refresh TTLs, clock skew tolerance, and the HS256
// signing secrets. Both secrets are required; they must differ so a refresh
// credential can never pass access verification.
type Config struct {
	// Issuer is the value set in the "iss" claim of both credentials.
	Issuer string

	// AccessTokenTTL defines the lifetime of access credentials.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh credentials and of the
	// durable record that backs them.
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during verification.
	ClockSkew time.Duration

	// AccessSecret signs access credentials (HS256).
	AccessSecret string
	// RefreshSecret signs refresh credentials (HS256).
	RefreshSecret string
}

// DefaultConfig returns defaults matching the product's session windows:
// a 15-minute access window backed by a 7-day refresh window.
func DefaultConfig() Config {
	return Config{
		Issuer:          "sociofeed",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		ClockSkew:       30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - SOCIOFEED_AUTH_ACCESS_SECRET
//   - SOCIOFEED_AUTH_REFRESH_SECRET
//
// Optional (durations must be valid Go duration strings):
//   - SOCIOFEED_AUTH_ISSUER
//   - SOCIOFEED_AUTH_ACCESS_TTL
//   - SOCIOFEED_AUTH_REFRESH_TTL
//   - SOCIOFEED_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("SOCIOFEED_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("SOCIOFEED_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("SOCIOFEED_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("SOCIOFEED_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.AccessSecret = os.Getenv("SOCIOFEED_AUTH_ACCESS_SECRET")
	cfg.RefreshSecret = os.Getenv("SOCIOFEED_AUTH_REFRESH_SECRET")
	if err := cfg.validateSecrets(); err != nil {
		return Config{}, err
	}

	// Invariant: the refresh window must outlast the access window.
	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}

func (c Config) validateSecrets() error {
	if len(c.AccessSecret) < 32 || len(c.RefreshSecret) < 32 {
		return ErrConfig
	}
	if c.AccessSecret == c.RefreshSecret {
		return ErrConfig
	}
	return nil
}
