package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/hangouts/internal/bus"
)

// ReadyState is the four-valued lifecycle of the duplex connection. The numeric
// values match the WebSocket readyState constants.
type ReadyState int

const (
	Connecting ReadyState = 0
	Open       ReadyState = 1
	Closing    ReadyState = 2
	Closed     ReadyState = 3
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Open:
		return "OPEN"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	}
	return fmt.Sprintf("ReadyState(%d)", int(s))
}

// validTransitions defines allowed state transitions. Every live state may drop
// to Closed on a transport error.
var validTransitions = map[ReadyState][]ReadyState{
	Connecting: {Open, Closing, Closed},
	Open:       {Closing, Closed},
	Closing:    {Closed},
	Closed:     {Connecting},
}

// Machine tracks and enforces readiness transitions. It starts Closed: no
// transport exists until the first dial.
type Machine struct {
	mu      sync.RWMutex
	current ReadyState
	bus     *bus.Bus
}

// NewMachine creates a new state machine in the Closed state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Closed,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() ReadyState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to ReadyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Publish(bus.NewEvent(bus.KindReadyState, Change{From: from, To: to}))
	return nil
}

// Change is the payload for readiness change events.
type Change struct {
	From ReadyState
	To   ReadyState
}
