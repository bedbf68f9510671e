package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Properties []PropertySubscription `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// PropertySubscription links a push subscription to a property it watches.
// Properties live in the key-value store, so PropertyID is not a foreign key.
type PropertySubscription struct {
	Endpoint   string `gorm:"primaryKey"`
	PropertyID string `gorm:"primaryKey;index"`
}
