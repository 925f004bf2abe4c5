package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, 300, cfg.RateLimitPerHour)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.IsProduction())
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://tubescribe.app, https://www.tubescribe.app")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("API_REQUEST_TIMEOUT", "30s")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://tubescribe.app", "https://www.tubescribe.app"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok development", func(c *Config) {}, ""},
		{"production without secret", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = ""
		}, "JWT_SECRET_KEY"},
		{"production with secret", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s3cret"
		}, ""},
		{"zero minute limit", func(c *Config) { c.RateLimitPerMinute = 0 }, "rate limit"},
		{"hour below minute", func(c *Config) {
			c.RateLimitPerMinute = 100
			c.RateLimitPerHour = 10
		}, "RATE_LIMIT_PER_HOUR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
