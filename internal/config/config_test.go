package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with every setting unset, so
// neither a developer .env nor the ambient environment leaks in.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "DEFAULT_LIMIT", "COLLECTOR_MODE", "UPSTREAM_BASE_URL",
		"REDDIT_USER_AGENT", "REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "REDDIT_USERNAME",
		"REDDIT_PASSWORD", "UPSTREAM_TIMEOUT", "FETCH_MIN_INTERVAL", "MOCK_LISTING_PATH",
		"STORAGE_TYPE", "DATABASE_PATH", "POSTGRES_URI", "MONGODB_URI", "MONGODB_DATABASE",
		"DYNAMODB_TABLE", "AWS_REGION", "DYNAMODB_ENDPOINT", "JSONL_DIR",
		"STAR_CACHE_TTL", "STAR_CACHE_MAX_ENTRIES", "STAR_CACHE_SWEEP",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 25, cfg.DefaultLimit)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ModePublic, cfg.Collector.Mode)
	assert.Equal(t, "https://www.reddit.com", cfg.Collector.BaseURL)
	assert.Equal(t, "linux:reddit-grid:"+Version+" (by /u/username)", cfg.Collector.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Collector.Timeout)
	assert.Zero(t, cfg.Collector.MinInterval)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, "data/stars.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, "@every 5m", cfg.Cache.SweepSpec)
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("COLLECTOR_MODE", "MOCK")
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:1234/")
	t.Setenv("STORAGE_TYPE", "jsonl")
	t.Setenv("STAR_CACHE_TTL", "0s")
	t.Setenv("FETCH_MIN_INTERVAL", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, ModeMock, cfg.Collector.Mode)
	assert.Equal(t, "http://localhost:1234", cfg.Collector.BaseURL)
	assert.Equal(t, StorageJSONL, cfg.Storage.Type)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Second, cfg.Collector.MinInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"PORT": "eighty"}, "invalid PORT"},
		{"bad duration", map[string]string{"UPSTREAM_TIMEOUT": "soon"}, "invalid UPSTREAM_TIMEOUT"},
		{"unknown mode", map[string]string{"COLLECTOR_MODE": "scrape"}, "unknown COLLECTOR_MODE"},
		{"api without credentials", map[string]string{"COLLECTOR_MODE": "api"}, "required in api mode"},
		{"postgres without uri", map[string]string{"STORAGE_TYPE": "postgres"}, "POSTGRES_URI"},
		{"mongo without uri", map[string]string{"STORAGE_TYPE": "mongodb"}, "MONGODB_URI"},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "etcd"}, "unsupported STORAGE_TYPE"},
		{"limit too large", map[string]string{"DEFAULT_LIMIT": "500"}, "DEFAULT_LIMIT"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "invalid LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
