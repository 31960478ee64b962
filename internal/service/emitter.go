// Package service contains the business logic: session management,
// authorization checks, cascading deletes, and the fan-out of realtime
// events resulting from every mutation.
package service

// Emitter delivers realtime events to a logical audience. Delivery is
// best-effort; emit failures never fail the originating mutation.
type Emitter interface {
	EmitToUsers(userIDs []uint, event string, payload interface{})
	EmitToSession(sessionID uint, event string, payload interface{})
}

// NopEmitter discards every event. Used when no realtime layer is wired,
// and as the default in tests.
type NopEmitter struct{}

func (NopEmitter) EmitToUsers([]uint, string, interface{})     {}
func (NopEmitter) EmitToSession(uint, string, interface{})     {}
