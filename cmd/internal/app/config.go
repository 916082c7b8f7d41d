package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Browser clients send credential cookies cross-origin, so CORS must be
	// explicit: allowed origins, credentials flag, preflight cache.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, SOCIOFEED_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-credential hashing must be HMAC-based.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("SOCIOFEED_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("SOCIOFEED_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("SOCIOFEED_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SOCIOFEED_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SOCIOFEED_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SOCIOFEED_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SOCIOFEED_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("SOCIOFEED_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("SOCIOFEED_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SOCIOFEED_DB_MIN_CONNS", 0),

		CORSAllowedOrigins:   EnvCSV("SOCIOFEED_CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		CORSAllowCredentials: EnvBool("SOCIOFEED_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("SOCIOFEED_CORS_MAX_AGE_SECONDS", 600),

		ReadinessRequireDB: EnvBool("SOCIOFEED_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("SOCIOFEED_REQUIRE_TOKEN_HMAC", false),
	}
}
