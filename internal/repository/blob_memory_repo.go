package repository

import (
	"context"
	"fmt"
	"sync"
)

type memoryBlobRepository struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
	used  int
}

// NewMemoryBlobRepository keeps blobs in process memory. A positive quota caps the total number
// of stored value bytes; writes past it fail with ErrQuotaExceeded and keep the previous value.
func NewMemoryBlobRepository(quotaBytes int) BlobRepository {
	return &memoryBlobRepository{
		data:  make(map[string]string),
		quota: quotaBytes,
	}
}

func (r *memoryBlobRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.data[key]
	return value, ok, nil
}

func (r *memoryBlobRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.used - len(r.data[key]) + len(value)
	if r.quota > 0 && next > r.quota {
		return fmt.Errorf("store blob %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}

	r.data[key] = value
	r.used = next
	return nil
}

func (r *memoryBlobRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.used -= len(r.data[key])
	delete(r.data, key)
	return nil
}
