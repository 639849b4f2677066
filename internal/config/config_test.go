package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 50, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 8, cfg.OTP.Length)
	assert.Equal(t, 15*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, RateLimitConfig{Enabled: true, Anonymous: 20, User: 5, Window: time.Hour}, cfg.RateLimit)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "local", cfg.AuthProvider)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabaseURL:  "postgres://localhost/db",
			AuthProvider: "local",
			JWT:          JWTConfig{Secret: "s3cret"},
			OTP:          OTPConfig{Length: 8},
			Pagination:   PaginationConfig{DefaultPageSize: 50, MaxPageSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "default secret in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWT.Secret = "change-me-in-production"
		}, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.AuthProvider = "ldap" }, wantErr: true},
		{name: "casdoor without endpoint", mutate: func(c *Config) { c.AuthProvider = "casdoor" }, wantErr: true},
		{name: "default above max", mutate: func(c *Config) { c.Pagination.DefaultPageSize = 200 }, wantErr: true},
		{name: "negative otp attempts", mutate: func(c *Config) { c.OTP.MaxAttempts = -1 }, wantErr: true},
		{name: "rate limit without window", mutate: func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, Anonymous: 20, User: 5}
		}, wantErr: true},
		{name: "rate limit disabled", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
