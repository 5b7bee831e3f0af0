package chat

import (
	"testing"

	"github.com/pcastro/parley/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != NoThread {
		t.Errorf("initial state = %s, want NO_THREAD", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{NoThread, Loading},
		{NoThread, Sending},
		{Loading, Ready},
		{Loading, Loading},
		{Loading, NoThread},
		{Ready, Sending},
		{Ready, Loading},
		{Ready, NoThread},
		{Sending, Ready},
		{Sending, NoThread},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{NoThread, Ready},
		{Loading, Sending},
		{Sending, Loading},
		{Sending, Sending},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s -> %s) should fail", tt.from, tt.to)
			}
			if m.Current() != tt.from {
				t.Errorf("state = %s, want unchanged %s", m.Current(), tt.from)
			}
		})
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindSessionStateChanged {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindSessionStateChanged)
	}
	change, ok := evt.Payload.(StateChange)
	if !ok {
		t.Fatalf("payload type = %T, want StateChange", evt.Payload)
	}
	if change.From != NoThread || change.To != Loading {
		t.Errorf("change = %v -> %v, want NO_THREAD -> LOADING", change.From, change.To)
	}
}

// TestSelectSendLifecycle walks the path a user takes: pick a thread,
// wait for history, send a message, get the reply.
func TestSelectSendLifecycle(t *testing.T) {
	m := NewMachine(nil)

	steps := []State{Loading, Ready, Sending, Ready}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
	if m.Current() != Ready {
		t.Errorf("final state = %s, want READY", m.Current())
	}
}

// TestFirstMessageCreatesThread covers sending from an empty session:
// NO_THREAD goes straight to SENDING, no LOADING pass.
func TestFirstMessageCreatesThread(t *testing.T) {
	m := NewMachine(nil)

	if err := m.Transition(Sending); err != nil {
		t.Fatalf("NO_THREAD -> SENDING: %v", err)
	}
	if err := m.Transition(Ready); err != nil {
		t.Fatalf("SENDING -> READY: %v", err)
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		NoThread: {},
		Loading:  {Loading},
		Ready:    {Loading, Ready},
		Sending:  {Sending},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
