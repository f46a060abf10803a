package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/icco/marquee/lib/storage"
	"github.com/icco/marquee/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordStore implements storage.Storage on the storage_records table.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Load(ctx context.Context, key string) ([]byte, error) {
	var rec models.StorageRecord
	err := s.db.WithContext(ctx).Where(&models.StorageRecord{Key: key}).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load record %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

func (s *RecordStore) Save(ctx context.Context, key string, value []byte) error {
	rec := models.StorageRecord{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", key, err)
	}
	return nil
}

// List returns every record ordered by key.
func (s *RecordStore) List(ctx context.Context) ([]models.StorageRecord, error) {
	var recs []models.StorageRecord
	if err := s.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return recs, nil
}
