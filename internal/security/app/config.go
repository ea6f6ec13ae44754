package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expiry sweep interval (default: 5m)

	StoreDriver  string // memory or sqlite (default: memory)
	DatabaseFile string // SQLite database file (default: ./security.db)

	SigningSecret     string // Optional: base64url HMAC secret, takes precedence over the file
	SigningSecretFile string // Loaded or generated when SigningSecret is empty (default: ./signing.key)
	TokenIssuer       string // iss claim on session tokens (default: aegis)
	SessionTimeout    time.Duration

	MaxFailedAttempts     int
	LockoutDuration       time.Duration
	PasswordHashAlgorithm string // bcrypt or argon2id (default: bcrypt)
	PasswordHashCost      int    // bcrypt work factor (default: 12)
	PepperFile            string // argon2id pepper, loaded or generated (default: ./pepper)

	MFAIssuer      string
	MFATicketTTL   time.Duration
	MFASealKeyFile string // Key sealing TOTP secrets at rest, loaded or generated (default: ./mfa-seal.key)

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	GlobalRatePerSec     float64
	GlobalBurst          int
	TrustProxyHeaders    bool

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	HeadersEnabled       bool
	HSTSEnabled          bool

	ThreatBlockThreshold int
	BlockDuration        time.Duration // 0 keeps a source blocked until unblocked
	AuditMaxEntries      int
	AdminUsers           []string // Usernames granted the security:admin scope

	EnableAuth        bool
	EnableAPISecurity bool
	EnableDLP         bool

	PolicyFile string // Optional TOML policy overrides
}

func LoadConfig() Config {
	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 5*time.Minute),

		StoreDriver:  strings.ToLower(getEnvOrDefault("STORE_DRIVER", "memory")),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "security.db"),

		SigningSecret:     os.Getenv("SECURITY_SIGNING_SECRET"),
		SigningSecretFile: getEnvOrDefault("SECURITY_SIGNING_SECRET_FILE", "signing.key"),
		TokenIssuer:       getEnvOrDefault("TOKEN_ISSUER", "aegis"),
		SessionTimeout:    getEnvDurationOrDefault("SESSION_TIMEOUT", time.Hour),

		MaxFailedAttempts:     getEnvIntOrDefault("AUTH_MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration:       getEnvDurationOrDefault("AUTH_LOCKOUT_DURATION", 15*time.Minute),
		PasswordHashAlgorithm: getEnvOrDefault("PASSWORD_HASH_ALGORITHM", "bcrypt"),
		PasswordHashCost:      getEnvIntOrDefault("PASSWORD_HASH_COST", 12),
		PepperFile:            getEnvOrDefault("PASSWORD_PEPPER_FILE", "pepper"),

		MFAIssuer:      getEnvOrDefault("MFA_ISSUER", "Aegis"),
		MFATicketTTL:   getEnvDurationOrDefault("MFA_TICKET_TTL", 5*time.Minute),
		MFASealKeyFile: getEnvOrDefault("MFA_SEAL_KEY_FILE", "mfa-seal.key"),

		RateLimitWindow:      getEnvDurationOrDefault("RATELIMIT_WINDOW", 15*time.Minute),
		RateLimitMaxRequests: getEnvIntOrDefault("RATELIMIT_MAX_REQUESTS", 100),
		GlobalRatePerSec:     getEnvFloatOrDefault("GLOBAL_RATE_PER_SEC", 500),
		GlobalBurst:          getEnvIntOrDefault("GLOBAL_BURST", 1000),
		TrustProxyHeaders:    getEnvBoolOrDefault("TRUST_PROXY_HEADERS", false),

		CORSEnabled:          getEnvBoolOrDefault("CORS_ENABLED", true),
		CORSAllowedOrigins:   getEnvListOrDefault("CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: getEnvBoolOrDefault("CORS_ALLOW_CREDENTIALS", false),
		HeadersEnabled:       getEnvBoolOrDefault("SECURITY_HEADERS_ENABLED", true),
		HSTSEnabled:          getEnvBoolOrDefault("HSTS_ENABLED", false),

		ThreatBlockThreshold: getEnvIntOrDefault("THREAT_BLOCK_THRESHOLD", 80),
		BlockDuration:        getEnvDurationOrDefault("BLOCK_DURATION", 0),
		AuditMaxEntries:      getEnvIntOrDefault("AUDIT_MAX_ENTRIES", 10000),
		AdminUsers:           getEnvListOrDefault("SECURITY_ADMIN_USERS", nil),

		EnableAuth:        getEnvBoolOrDefault("ENABLE_AUTH", true),
		EnableAPISecurity: getEnvBoolOrDefault("ENABLE_API_SECURITY", true),
		EnableDLP:         getEnvBoolOrDefault("ENABLE_DLP", true),

		PolicyFile: os.Getenv("SECURITY_POLICY_FILE"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping empty items.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
