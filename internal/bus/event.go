package bus

import "time"

// Event kinds published by the hangouts engine. Subscribers filter by prefix,
// e.g. "state." or "nav.".
const (
	KindStateChanged = "state.changed"
	KindNavigate     = "nav.navigate"
	KindReadyState   = "conn.ready_state"
	KindEngineError  = "engine.error"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
