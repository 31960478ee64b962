package models

import (
	"time"
)

// Room member and channel caps, enforced at membership-add and
// channel-create time. Concurrent adds racing past the check settle at the
// persistence layer; callers treat the resulting Conflict as expected.
const (
	MaxRoomsPerUser    = 100
	MaxChannelsPerRoom = 50
)

// Room is either a group room (DM false: mutable membership, privileged
// creator, invites) or a DM room (DM true: exactly the two linked users,
// fixed membership and channel set, no invites).
type Room struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	ProfilePic string    `json:"profilePic"`
	CreatorID  uint      `gorm:"not null;index" json:"creatorID"`
	DM         bool      `gorm:"default:false" json:"dm"`
	CreatedAt  time.Time `json:"timeCreated"`

	// Normalized DM pair. Low < High always; the unique index is the
	// last line of defense against two concurrent CreateDM calls for the
	// same pair.
	DMLowID  *uint `gorm:"uniqueIndex:idx_rooms_dm_pair" json:"-"`
	DMHighID *uint `gorm:"uniqueIndex:idx_rooms_dm_pair" json:"-"`

	Memberships []RoomMembership `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
	Channels    []Channel        `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"channels,omitempty"`
}

// TableName specifies the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

// HasMember reports whether userID is in the room's loaded membership list.
func (r *Room) HasMember(userID uint) bool {
	for i := range r.Memberships {
		if r.Memberships[i].UserID == userID {
			return true
		}
	}
	return false
}

// IsOwner reports whether userID created the room. DM rooms have no owner
// privileges regardless of CreatorID.
func (r *Room) IsOwner(userID uint) bool {
	return !r.DM && r.CreatorID == userID
}

// MemberIDs returns the userIDs of the loaded membership list, in join order.
func (r *Room) MemberIDs() []uint {
	ids := make([]uint, 0, len(r.Memberships))
	for i := range r.Memberships {
		ids = append(ids, r.Memberships[i].UserID)
	}
	return ids
}

// DMPair normalizes two userIDs into the (low, high) order stored on a DM
// room.
func DMPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// RoomMembership is the join row binding a User to a Room. Position carries
// the user-defined ordering of the user's room list; DM mirrors the room's
// DM flag so per-user room and DM lists (and the room cap) read one table.
type RoomMembership struct {
	RoomID   uint      `gorm:"primaryKey" json:"roomID"`
	UserID   uint      `gorm:"primaryKey;index" json:"userID"`
	Position int       `gorm:"default:0" json:"position"`
	DM       bool      `gorm:"default:false" json:"-"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// TableName specifies the table name for GORM
func (RoomMembership) TableName() string {
	return "room_memberships"
}
