package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Friendship links two users. Created unaccepted by one party (Creator);
// only the other party may accept or reject it. An accepted Friendship never
// transitions back to unaccepted.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatorID uint      `gorm:"not null;index" json:"creator"`
	FriendID  uint      `gorm:"not null;index" json:"friend"`
	Accepted  bool      `gorm:"default:false" json:"accepted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	// PairKey normalizes the unordered {Creator, Friend} pair so the
	// unique index rejects a duplicate created in either direction, even
	// under concurrent creates.
	PairKey string `gorm:"uniqueIndex;not null" json:"-"`

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
	Friend  User `gorm:"foreignKey:FriendID" json:"-"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate derives the normalized pair key.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	low, high := DMPair(f.CreatorID, f.FriendID)
	f.PairKey = fmt.Sprintf("%d:%d", low, high)
	return nil
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID uint) bool {
	return f.CreatorID == userID || f.FriendID == userID
}

// Other returns the counterpart of userID in the friendship.
func (f *Friendship) Other(userID uint) uint {
	if f.CreatorID == userID {
		return f.FriendID
	}
	return f.CreatorID
}
