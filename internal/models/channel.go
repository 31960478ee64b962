package models

import "time"

// Channel is a named message stream owned exclusively by its Room; it is
// deleted when the Room is deleted.
type Channel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"not null;index" json:"room"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (Channel) TableName() string {
	return "channels"
}
