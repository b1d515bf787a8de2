package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idea-board/internal/config"
	"github.com/noah-isme/idea-board/internal/models"
)

func TestConnectSQLMigratesBlobTable(t *testing.T) {
	db, err := ConnectSQL("sqlite", filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)

	require.True(t, db.Migrator().HasTable(&models.BoardBlob{}))
}

func TestConnectSQLRejectsUnknownDriver(t *testing.T) {
	_, err := ConnectSQL("mysql", "user@/board")
	require.Error(t, err)

	_, err = ConnectSQL("sqlite", "")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+mini.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "ping", "pong", 0).Err())
	mini.CheckGet(t, "ping", "pong")
}

func TestConnectNATSRequiresURL(t *testing.T) {
	_, err := ConnectNATS("", "board")
	require.Error(t, err)
}

func TestOpenBlobRepositoryBackends(t *testing.T) {
	ctx := context.Background()
	mini := miniredis.RunT(t)

	cases := map[string]config.Config{
		"sqlite": {StorageDriver: config.StorageSQLite, DatabaseURL: filepath.Join(t.TempDir(), "board.db")},
		"redis":  {StorageDriver: config.StorageRedis, RedisURL: "redis://" + mini.Addr()},
		"memory": {StorageDriver: config.StorageMemory, QuotaBytes: 1024},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			repo, closeFn, err := OpenBlobRepository(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = closeFn() })

			require.NoError(t, repo.Set(ctx, "board:ideas", `[]`))
			value, found, err := repo.Get(ctx, "board:ideas")
			require.NoError(t, err)
			require.True(t, found)
			require.JSONEq(t, `[]`, value)
		})
	}

	_, _, err := OpenBlobRepository(ctx, config.Config{StorageDriver: "tape"})
	require.Error(t, err)
}
