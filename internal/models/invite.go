package models

import "time"

// InviteTTL is how long an invite code stays redeemable. Expiry is enforced
// at lookup time, not by a background delete.
const InviteTTL = 24 * time.Hour

// Invite grants entry to a group room via its code. Never valid for DM
// rooms.
type Invite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	RoomID    uint      `gorm:"not null;index" json:"roomID"`
	CreatedAt time.Time `json:"timeCreated"`
}

// TableName specifies the table name for GORM
func (Invite) TableName() string {
	return "invites"
}

// Expired reports whether the invite is past its TTL at the given instant.
func (i *Invite) Expired(now time.Time) bool {
	return now.Sub(i.CreatedAt) >= InviteTTL
}
