package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habitrack-backend/internal/model"
)

// GormStore keeps blobs in the kv_entries table, scoped by namespace.
type GormStore struct {
	db        *gorm.DB
	namespace string
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store over db for one namespace.
func NewGormStore(db *gorm.DB, namespace string) *GormStore {
	return &GormStore{db: db, namespace: namespace}
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.KVEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", s.namespace, key).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s/%s: %w", s.namespace, key, err)
	}
	return entry.Value, true, nil
}

// Set implements Store.
func (s *GormStore) Set(ctx context.Context, key, value string) error {
	entry := model.KVEntry{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", s.namespace, key, err)
	}
	return nil
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", s.namespace, key).
		Delete(&model.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", s.namespace, key, err)
	}
	return nil
}
