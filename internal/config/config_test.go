package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, uint(5), cfg.Cache.RetryAttempts)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Reload.Interval)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "postgres://postgres:@localhost:5432/menu?sslmode=disable", cfg.DB.DSN())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "BigCache")
	t.Setenv("CACHE_EXPIRE_IN_SEC", "60")
	t.Setenv("CACHE_CODEC", "msgpack")
	t.Setenv("RELOAD_INTERVAL", "500ms")
	t.Setenv("DEFERRED_WORKERS", "4")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bigcache", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "msgpack", cfg.Cache.Codec)
	assert.Equal(t, 500*time.Millisecond, cfg.Reload.Interval)
	assert.Equal(t, 4, cfg.Deferred.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "memory", cfg.StoreBackend)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct{ key, val string }{
		{"CACHE_BACKEND", "memcached"},
		{"CACHE_CODEC", "gob"},
		{"LOG_BACKEND", "fmt"},
		{"DB_PORT", "postgres"},
		{"CACHE_BREAKER", "maybe"},
		{"DEFERRED_QUEUE", "0"},
		{"RELOAD_INTERVAL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
