package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	Port string
	Env  string

	DataBackend  string
	DatabaseURL  string
	SQLiteDBPath string

	JWTSecret    string
	JWTExpiresIn time.Duration
	JWTIssuer    string
	JWTAudience  string

	FrontendURLs []string

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	// TrustProxy keys rate limiting on X-Forwarded-For. Only set it behind a proxy
	// that appends the client address.
	TrustProxy bool

	DemoMode bool
	Location *time.Location

	ExportDateLayout  string
	DashboardCacheTTL time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	LogLevel string
}

// Load reads the process environment (and an optional .env file) once.
// Call Validate before using the result.
func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	env := getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment))

	cfg := Config{
		Port: getEnv("PORT", "5000"),
		Env:  strings.ToLower(env),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendPostgres)),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finance.db"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 2*time.Hour),
		JWTIssuer:    getEnv("JWT_ISSUER", "financial-analytics-api"),
		JWTAudience:  getEnv("JWT_AUDIENCE", "financial-analytics-client"),

		FrontendURLs: splitList(getEnv("FRONTEND_URL", "http://localhost:3000")),

		RateLimitWindow:      time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond,
		RateLimitMaxRequests: getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		TrustProxy:           getEnvBool("TRUST_PROXY", false),

		DemoMode: getEnvBool("DEMO_MODE", false),
		Location: getEnvLocation("APP_TIMEZONE", time.UTC),

		ExportDateLayout:  getEnv("EXPORT_DATE_LAYOUT", "1/2/2006"),
		DashboardCacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finance"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),
		PlaidEnv:      getEnv("PLAID_ENV", "sandbox"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c Config) PlaidEnabled() bool {
	return c.PlaidClientID != "" && c.PlaidSecret != ""
}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errors = append(errors, fmt.Sprintf("invalid environment '%s': must be one of development, production, test", c.Env))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using the postgres backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH cannot be empty when using the sqlite backend")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of postgres, sqlite, memory", c.DataBackend))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if c.Env != EnvDevelopment && len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters outside development")
	}
	if c.JWTExpiresIn <= 0 {
		errors = append(errors, fmt.Sprintf("invalid JWT_EXPIRES_IN %v: must be positive", c.JWTExpiresIn))
	}

	for _, origin := range c.FrontendURLs {
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid FRONTEND_URL entry '%s'", origin))
		}
	}

	if c.RateLimitWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate limit window %v: must be at least 1 second", c.RateLimitWindow))
	}
	if c.RateLimitMaxRequests < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit max requests %d: must be at least 1", c.RateLimitMaxRequests))
	}

	if c.Location == nil {
		errors = append(errors, "invalid APP_TIMEZONE")
	}
	if c.ExportDateLayout == "" {
		errors = append(errors, "EXPORT_DATE_LAYOUT cannot be empty")
	}
	if c.DashboardCacheTTL < 0 {
		errors = append(errors, "DASHBOARD_CACHE_TTL cannot be negative")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			errors = append(errors, "AMQP exchange and queue names cannot be empty when AMQP_URL is set")
		}
	}

	if c.PlaidEnabled() && c.PlaidEnv != "sandbox" && c.PlaidEnv != "production" {
		errors = append(errors, fmt.Sprintf("invalid PLAID_ENV '%s': must be sandbox or production", c.PlaidEnv))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL '%s'", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90m", "2h") and whole days ("7d").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	if d, err := ParseDuration(value); err == nil {
		return d
	}
	return fallback
}

func ParseDuration(value string) (time.Duration, error) {
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", value, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

func getEnvLocation(key string, fallback *time.Location) *time.Location {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil
	}
	return loc
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
