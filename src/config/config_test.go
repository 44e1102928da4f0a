package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:                 "5000",
		Env:                  EnvProduction,
		DataBackend:          BackendPostgres,
		DatabaseURL:          "postgres://localhost/finance",
		JWTSecret:            "0123456789abcdef0123",
		JWTExpiresIn:         2 * time.Hour,
		FrontendURLs:         []string{"http://localhost:3000"},
		RateLimitWindow:      15 * time.Minute,
		RateLimitMaxRequests: 100,
		Location:             time.UTC,
		ExportDateLayout:     "1/2/2006",
		DashboardCacheTTL:    time.Minute,
		LogLevel:             "info",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "http" },
			wantErr: "invalid port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "must be between 1 and 65535",
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "DATABASE_URL is required",
		},
		{
			name:   "memory backend needs no url",
			mutate: func(c *Config) { c.DataBackend = BackendMemory; c.DatabaseURL = "" },
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.DataBackend = "mongo" },
			wantErr: "invalid data backend",
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short secret in production",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "at least 16 characters",
		},
		{
			name:   "short secret allowed in development",
			mutate: func(c *Config) { c.Env = EnvDevelopment; c.JWTSecret = "short" },
		},
		{
			name:    "bad amqp scheme",
			mutate:  func(c *Config) { c.AMQPURL = "http://rabbit:5672" },
			wantErr: "invalid AMQP URL scheme",
		},
		{
			name:    "bad frontend url",
			mutate:  func(c *Config) { c.FrontendURLs = []string{"localhost"} },
			wantErr: "invalid FRONTEND_URL",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "x"
	cfg.JWTSecret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	if strings.Count(err.Error(), "\n- ") != 2 {
		t.Errorf("Validate() should list both problems, got %q", err.Error())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "")
	t.Setenv("TRUST_PROXY", "")

	cfg := Load()
	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.JWTExpiresIn != 2*time.Hour {
		t.Errorf("JWTExpiresIn = %v, want 2h", cfg.JWTExpiresIn)
	}
	if cfg.RateLimitWindow != 15*time.Minute {
		t.Errorf("RateLimitWindow = %v, want 15m", cfg.RateLimitWindow)
	}
	if cfg.RateLimitMaxRequests != 100 {
		t.Errorf("RateLimitMaxRequests = %d, want 100", cfg.RateLimitMaxRequests)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy = true, want false by default")
	}
	if len(cfg.FrontendURLs) != 1 || cfg.FrontendURLs[0] != "http://localhost:3000" {
		t.Errorf("FrontendURLs = %v", cfg.FrontendURLs)
	}
}

func TestLoadNodeEnvFallback(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "production")

	if got := Load().Env; got != EnvProduction {
		t.Errorf("Env = %q, want production", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2h", 2 * time.Hour},
		{"90m", 90 * time.Minute},
		{"7d", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if err != nil {
				t.Fatalf("ParseDuration(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseDuration("xd"); err == nil {
		t.Error("ParseDuration(xd) error = nil, want error")
	}
}
