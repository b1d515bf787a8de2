package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/idea-board/internal/models"
)

// ErrQuotaExceeded is returned when a write would exceed the backend's storage quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// BlobRepository is a key-value store of serialized documents.
type BlobRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type blobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBlobRepository constructs a repository backed by GORM.
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepository{db: db, now: time.Now}
}

func (r *blobRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var blob models.BoardBlob
	if err := r.db.WithContext(ctx).Where("blob_key = ?", key).First(&blob).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load blob %q: %w", key, err)
	}
	return string(blob.Value), true, nil
}

func (r *blobRepository) Set(ctx context.Context, key, value string) error {
	blob := models.BoardBlob{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: r.now().UTC(),
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	})
	if err := tx.Create(&blob).Error; err != nil {
		return fmt.Errorf("store blob %q: %w", key, err)
	}
	return nil
}

func (r *blobRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("blob_key = ?", key).Delete(&models.BoardBlob{}).Error; err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}
