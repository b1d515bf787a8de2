package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisBlobRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBlobRepository stores blobs as plain Redis strings. A zero ttl keeps keys forever.
func NewRedisBlobRepository(client *redis.Client, ttl time.Duration) BlobRepository {
	return &redisBlobRepository{client: client, ttl: ttl}
}

func (r *redisBlobRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load blob %q: %w", key, err)
	}
	return value, true, nil
}

func (r *redisBlobRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		// Redis reports maxmemory rejections as OOM errors.
		if strings.HasPrefix(err.Error(), "OOM") {
			return fmt.Errorf("store blob %q: %w: %v", key, ErrQuotaExceeded, err)
		}
		return fmt.Errorf("store blob %q: %w", key, err)
	}
	return nil
}

func (r *redisBlobRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}
