package database

import (
	"context"
	"fmt"

	"github.com/noah-isme/idea-board/internal/config"
	"github.com/noah-isme/idea-board/internal/repository"
)

// OpenBlobRepository connects the blob backend selected by cfg.StorageDriver. The returned
// close function releases the underlying connection.
func OpenBlobRepository(ctx context.Context, cfg config.Config) (repository.BlobRepository, func() error, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite, config.StoragePostgres:
		db, err := ConnectSQL(cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to access sql pool: %w", err)
		}
		return repository.NewBlobRepository(db), sqlDB.Close, nil
	case config.StorageRedis:
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisBlobRepository(client, cfg.BlobTTL), client.Close, nil
	case config.StorageMemory:
		return repository.NewMemoryBlobRepository(cfg.QuotaBytes), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
