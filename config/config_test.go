package config

import (
	"strings"
	"testing"
	"time"
)

// setEnv clears every known variable for the test, then applies vars
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, name := range GetEnvVars() {
		t.Setenv(name, "")
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadValidConfig(t *testing.T) {
	setEnv(t, map[string]string{
		"PORT":      "8002",
		"ADDRESS":   "10.0.0.4",
		"ENV":       "staging",
		"LOG_LEVEL": "warn",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" || cfg.Address != "10.0.0.4" {
		t.Errorf("Expected 10.0.0.4:8002, got %s:%s", cfg.Address, cfg.Port)
	}
	if cfg.Env != EnvStaging {
		t.Errorf("Expected env staging, got %s", cfg.Env)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.LogLevel)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := Config{
		Port:              "8000",
		Address:           "127.0.0.1",
		Env:               EnvDevelopment,
		LogLevel:          "info",
		LogRetentionWeeks: 4,
		MaxLogFileSize:    104857600,
		MaxRequestBody:    1048576,
		MaxHeaderSize:     1048576,
	}
	if cfg.Port != expected.Port || cfg.Address != expected.Address || cfg.Env != expected.Env || cfg.LogLevel != expected.LogLevel {
		t.Errorf("Expected %s:%s %s %s, got %s:%s %s %s",
			expected.Address, expected.Port, expected.Env, expected.LogLevel,
			cfg.Address, cfg.Port, cfg.Env, cfg.LogLevel)
	}
	if cfg.LogRetentionWeeks != expected.LogRetentionWeeks || cfg.MaxLogFileSize != expected.MaxLogFileSize {
		t.Errorf("Unexpected log file defaults: %d weeks, %d bytes", cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	}
	if cfg.MaxRequestBody != expected.MaxRequestBody || cfg.MaxHeaderSize != expected.MaxHeaderSize {
		t.Errorf("Unexpected size defaults: body %d, headers %d", cfg.MaxRequestBody, cfg.MaxHeaderSize)
	}
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"PORT", "abc", "PORT must be a valid number"},
		{"PORT", "0", "PORT must be between 1 and 65535"},
		{"PORT", "65536", "PORT must be between 1 and 65535"},
		{"PORT", "80", "PORT 80 is privileged"},
		{"ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"ADDRESS", "8.8.8.8", "is a public IP"},
		{"ENV", "invalid", "ENV must be one of"},
		{"LOG_LEVEL", "verbose", "LOG_LEVEL must be one of"},
		{"MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"MAX_HEADER_SIZE", "209715200", "MAX_HEADER_SIZE is too large"},
		{"LOG_RETENTION_WEEKS", "53", "LOG_RETENTION_WEEKS is too large"},
		{"MAX_LOG_FILE_SIZE", "1024", "MAX_LOG_FILE_SIZE is too small"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setEnv(t, map[string]string{tt.key: tt.value})

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestAddressAcceptsLocalRanges(t *testing.T) {
	for _, address := range []string{"localhost", "127.0.0.1", "::1", "192.168.1.20", "0.0.0.0"} {
		if err := validateAddress(address); err != nil {
			t.Errorf("Expected %s to be accepted, got %v", address, err)
		}
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
		hasError bool
	}{
		{"dev", EnvDevelopment, false},
		{"development", EnvDevelopment, false},
		{"staging", EnvStaging, false},
		{"prod", EnvProduction, false},
		{"production", EnvProduction, false},
		{"test", EnvTest, false},
		{"invalid", EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			env, err := ParseEnvironment(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.input)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error for %s: %v", tt.input, err)
				}
				if env != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, env)
				}
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	tests := []struct {
		env      Environment
		expected string
	}{
		{EnvDevelopment, "dev"},
		{EnvStaging, "staging"},
		{EnvProduction, "prod"},
		{EnvTest, "test"},
	}

	for _, tt := range tests {
		if got := tt.env.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestLoadServiceDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.AuditInterval != 6*time.Hour {
		t.Errorf("Expected default audit interval 6h, got %s", cfg.AuditInterval)
	}
	if cfg.AutoSeed || cfg.RequireProxy {
		t.Errorf("Expected AUTO_SEED and REQUIRE_PROXY off by default, got %v and %v", cfg.AutoSeed, cfg.RequireProxy)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" || cfg.NotifyWebhookURL != "" {
		t.Errorf("Expected optional backends unset, got %+v", cfg)
	}
	if cfg.HistoryFile != "history.json" || cfg.LogDir != "logs" {
		t.Errorf("Unexpected file defaults %q and %q", cfg.HistoryFile, cfg.LogDir)
	}
}

func TestLoadServiceSettings(t *testing.T) {
	setEnv(t, map[string]string{
		"ENV":                "production",
		"DATABASE_URL":       "postgres://calc:secret@db:5432/pediatric?sslmode=disable",
		"REDIS_URL":          "redis://cache:6379/0",
		"NOTIFY_WEBHOOK_URL": "https://hooks.example.org/dose",
		"AUDIT_INTERVAL":     "90m",
		"AUTO_SEED":          "true",
		"REQUIRE_PROXY":      "1",
		"LOG_LEVEL":          "DEBUG",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Env != EnvProduction {
		t.Errorf("Expected prod env, got %s", cfg.Env)
	}
	if cfg.AuditInterval != 90*time.Minute {
		t.Errorf("Expected 90m audit interval, got %s", cfg.AuditInterval)
	}
	if !cfg.AutoSeed || !cfg.RequireProxy {
		t.Error("Expected AUTO_SEED and REQUIRE_PROXY enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level to be lowercased, got %s", cfg.LogLevel)
	}
}

func TestInvalidServiceSettings(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"audit interval too short", "AUDIT_INTERVAL", "10s"},
		{"audit interval too long", "AUDIT_INTERVAL", "200h"},
		{"mysql database url", "DATABASE_URL", "mysql://root@db/pediatric"},
		{"redis url without scheme", "REDIS_URL", "cache:6379"},
		{"webhook without host", "NOTIFY_WEBHOOK_URL", "https://"},
		{"api base url ftp", "API_BASE_URL", "ftp://files.example.org"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setEnv(t, map[string]string{tc.key: tc.value})

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s, got nil", tc.key, tc.value)
			}
		})
	}
}
