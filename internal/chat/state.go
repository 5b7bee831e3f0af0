package chat

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pcastro/parley/internal/bus"
)

// State represents a conversation session state.
type State string

const (
	// NoThread means no chat is selected; the message pane is empty.
	NoThread State = "NO_THREAD"
	// Loading means a chat was selected and its history is being fetched.
	Loading State = "LOADING"
	// Ready means the selected chat's history is loaded.
	Ready State = "READY"
	// Sending means a user message is in flight and a reply is pending.
	Sending State = "SENDING"
)

// validTransitions defines allowed state transitions. Sending is reachable
// from NoThread because sending without a selected chat creates one.
var validTransitions = map[State][]State{
	NoThread: {Loading, Sending},
	Loading:  {Ready, Loading, NoThread},
	Ready:    {Sending, Loading, NoThread},
	Sending:  {Ready, NoThread},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting with no thread selected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: NoThread,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.PublishKind(bus.KindSessionStateChanged, StateChange{
			From: from,
			To:   to,
		})
	}
	return nil
}

// StateChange is the payload for state change events.
type StateChange struct {
	From State
	To   State
}
