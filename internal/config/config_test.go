package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENV", "STORE", "DATABASE_URL",
	"JWT_SECRET", "JWT_ISSUER", "JWT_ACCESS_EXPIRY",
	"NATS_URL", "NATS_SUBJECT",
	"CONNECTION_REQUEST_LIMIT", "CONNECTION_REQUEST_WINDOW",
	"RECENT_MESSAGES_FETCH_LIMIT", "RECENT_MESSAGES_POLL_INTERVAL",
	"CORS_ALLOWED_ORIGINS", "LOG_LEVEL",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 20, cfg.Relationship.RequestLimit)
	assert.Equal(t, 24*time.Hour, cfg.Relationship.RequestWindow)
	assert.Equal(t, 500, cfg.Relationship.InboxFetchLimit)
	assert.Equal(t, 30*time.Second, cfg.Relationship.InboxPollInterval)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("STORE", "Postgres")
	t.Setenv("CONNECTION_REQUEST_LIMIT", "5")
	t.Setenv("CONNECTION_REQUEST_WINDOW", "1h")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, 5, cfg.Relationship.RequestLimit)
	assert.Equal(t, time.Hour, cfg.Relationship.RequestWindow)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CONNECTION_REQUEST_LIMIT", "many"},
		{"CONNECTION_REQUEST_LIMIT", "0"},
		{"CONNECTION_REQUEST_WINDOW", "soon"},
		{"RECENT_MESSAGES_FETCH_LIMIT", "-1"},
		{"RECENT_MESSAGES_POLL_INTERVAL", "-5s"},
		{"JWT_ACCESS_EXPIRY", "forever"},
		{"STORE", "mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
