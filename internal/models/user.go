// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered Pulse account. A User exclusively owns its
// Sessions; a Session has no identity outside its owning User.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName    string    `json:"displayName"`
	About          string    `json:"about"`
	ProfilePic     string    `json:"profilePic"`
	Verified       bool      `gorm:"default:false" json:"verified"`
	GlobalRoles    string    `json:"globalRoles"`
	PasswordDigest string    `gorm:"not null" json:"-"`
	PasswordSalt   string    `gorm:"not null" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"-"`

	Sessions []Session `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// PublicView is the shape of a User visible to other users: no email,
// credentials, sessions, or room lists.
type PublicView struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	About       string `json:"about"`
	ProfilePic  string `json:"profilePic"`
}

// Public returns the redacted cross-user view of the user.
func (u *User) Public() PublicView {
	return PublicView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		About:       u.About,
		ProfilePic:  u.ProfilePic,
	}
}

// Session binds one authenticated device/client to a User. At most one
// Session exists per (UserID, IP, UserAgent) triple; a repeated login from
// the same address and agent reuses the existing token. The device index is
// the last line of defense against two concurrent logins minting two
// sessions for the same device.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_sessions_device" json:"-"`
	IP        string    `gorm:"not null;uniqueIndex:idx_sessions_device" json:"ip"`
	UserAgent string    `gorm:"not null;uniqueIndex:idx_sessions_device" json:"userAgent"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Session) TableName() string {
	return "sessions"
}

// SessionView is the token-redacted shape of a Session. Tokens never leave
// the store except as the return value of session creation.
type SessionView struct {
	ID        uint   `json:"id"`
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// View returns the redacted view of the session.
func (s *Session) View() SessionView {
	return SessionView{ID: s.ID, IP: s.IP, UserAgent: s.UserAgent}
}

// RedactSessions maps sessions to their redacted views.
func RedactSessions(sessions []Session) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessions[i].View())
	}
	return views
}
