package models

import (
	"encoding/json"
	"time"
)

// Settings is the one-to-one per-user preference blob, created alongside
// registration and never independently created by a client.
type Settings struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"-"`
	Settings  json.RawMessage `gorm:"type:json" json:"settings"`
	UpdatedAt time.Time       `json:"-"`
}

// TableName specifies the table name for GORM
func (Settings) TableName() string {
	return "settings"
}

// DefaultSettings returns the blob written at registration.
func DefaultSettings() json.RawMessage {
	return json.RawMessage(`{"appearance":{"scale":100,"theme":"dark"},"notifications":{"doNotDisturb":false}}`)
}
