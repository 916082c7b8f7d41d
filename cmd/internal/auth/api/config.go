package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Cookie names are part of the client contract and are not configurable:
// web clients read the logged-in marker by name.
const (
	AccessCookieName   = "accessToken"
	RefreshCookieName  = "refreshToken"
	LoggedInCookieName = "isLoggedIn"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	TrustProxy   bool
	MaxBodyBytes int64
}

// LoadConfigFromEnv loads auth API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		CookiePath:     envString("SOCIOFEED_AUTH_COOKIE_PATH", "/"),
		CookieDomain:   envString("SOCIOFEED_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:   envBool("SOCIOFEED_AUTH_COOKIE_SECURE", true),
		CookieSameSite: parseSameSite(envString("SOCIOFEED_AUTH_COOKIE_SAMESITE", "lax")),
		TrustProxy:     envBool("SOCIOFEED_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("SOCIOFEED_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
	}

	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
