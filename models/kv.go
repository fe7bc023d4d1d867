package models

import "time"

// KeyValueRecord backs the postgres key/value store. Values are opaque
// JSON documents.
type KeyValueRecord struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
