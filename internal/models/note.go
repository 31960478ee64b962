package models

import "time"

// Note is a private annotation one user keeps about another. At most one
// per (author, subject) pair; writes are upserts.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatorID uint      `gorm:"not null;uniqueIndex:idx_notes_pair" json:"creatorID"`
	SubjectID uint      `gorm:"not null;uniqueIndex:idx_notes_pair" json:"userID"`
	Note      string    `gorm:"type:text" json:"note"`
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (Note) TableName() string {
	return "notes"
}
