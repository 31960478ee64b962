// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"sync"
)

// Emission is one recorded fan-out call.
type Emission struct {
	UserIDs   []uint
	SessionID uint
	Event     string
	Payload   interface{}
}

// CaptureEmitter records every emission instead of delivering it. Safe for
// concurrent use.
type CaptureEmitter struct {
	mu        sync.Mutex
	emissions []Emission
}

// NewCaptureEmitter returns an empty CaptureEmitter.
func NewCaptureEmitter() *CaptureEmitter {
	return &CaptureEmitter{}
}

// EmitToUsers records a user-addressed emission.
func (e *CaptureEmitter) EmitToUsers(userIDs []uint, event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]uint, len(userIDs))
	copy(ids, userIDs)
	e.emissions = append(e.emissions, Emission{UserIDs: ids, Event: event, Payload: payload})
}

// EmitToSession records a session-addressed emission.
func (e *CaptureEmitter) EmitToSession(sessionID uint, event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emissions = append(e.emissions, Emission{SessionID: sessionID, Event: event, Payload: payload})
}

// Emissions returns a copy of everything recorded so far.
func (e *CaptureEmitter) Emissions() []Emission {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Emission, len(e.emissions))
	copy(out, e.emissions)
	return out
}

// ByEvent returns the recorded emissions with the given event name.
func (e *CaptureEmitter) ByEvent(event string) []Emission {
	var out []Emission
	for _, em := range e.Emissions() {
		if em.Event == event {
			out = append(out, em)
		}
	}
	return out
}

// Reset discards everything recorded so far.
func (e *CaptureEmitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emissions = nil
}
