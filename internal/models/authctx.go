package models

// AuthContext is the immutable identity resolved once per request or
// connection by the session manager and passed by parameter into every
// downstream call. It is never stored as ambient state.
type AuthContext struct {
	UserID    uint
	SessionID uint
}
