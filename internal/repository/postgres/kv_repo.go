package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dom/hydration-tracker/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one row of the key-value table.
type KVEntry struct {
	Key       string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

type kvRepository struct {
	db *gorm.DB
}

func NewKVRepository(db *gorm.DB) *kvRepository {
	return &kvRepository{db: db}
}

func (r *kvRepository) Get(ctx context.Context, key repository.Key) (json.RawMessage, bool, error) {
	var entry KVEntry
	err := r.db.WithContext(ctx).Where("key = ?", key.String()).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return json.RawMessage(entry.Value), true, nil
}

func (r *kvRepository) Set(ctx context.Context, key repository.Key, value json.RawMessage) error {
	entry := &KVEntry{
		Key:       key.String(),
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(entry).Error
}

func (r *kvRepository) Remove(ctx context.Context, key repository.Key) error {
	return r.db.WithContext(ctx).Where("key = ?", key.String()).Delete(&KVEntry{}).Error
}

// Close releases the underlying connection pool.
func (r *kvRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
