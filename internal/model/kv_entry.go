package model

import "time"

// KVEntry is one serialized blob in the embedded key-value store.
type KVEntry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
