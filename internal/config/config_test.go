package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, StorageSQLite, cfg.StorageDriver)
	require.Equal(t, "board.db", cfg.DatabaseURL)
	require.Equal(t, "board", cfg.KeyPrefix)
	require.Equal(t, "rating", cfg.EngagementMode)
	require.Equal(t, "you", cfg.OwnerID)
	require.Equal(t, "you", cfg.ActorID)
	require.Equal(t, 10, cfg.PageSize)
	require.Equal(t, 15*time.Second, cfg.StreamKeepAlive)
	require.Equal(t, 5*1024*1024, cfg.QuotaBytes)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOARD_APP_PORT", ":9090")
	t.Setenv("BOARD_STORAGE_DRIVER", "Redis")
	t.Setenv("BOARD_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BOARD_ENGAGEMENT_MODE", "votes")
	t.Setenv("BOARD_KEY_PREFIX", "antigravity")
	t.Setenv("BOARD_STORAGE_TTL", "1h")
	t.Setenv("BOARD_ACTOR_ID", "me")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, StorageRedis, cfg.StorageDriver)
	require.Equal(t, "votes", cfg.EngagementMode)
	require.Equal(t, "antigravity", cfg.KeyPrefix)
	require.Equal(t, time.Hour, cfg.BlobTTL)
	require.Equal(t, "me", cfg.ActorID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":      {"BOARD_STORAGE_DRIVER": "mongo"},
		"redis without url":   {"BOARD_STORAGE_DRIVER": "redis"},
		"unknown mode":        {"BOARD_ENGAGEMENT_MODE": "stars"},
		"bad ttl":             {"BOARD_STORAGE_TTL": "forever"},
		"non positive images": {"BOARD_MAX_IMAGE_BYTES": "0"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for key, value := range env {
				t.Setenv(key, value)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
}
