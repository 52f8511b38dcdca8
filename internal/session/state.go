package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/securechat/msgr/internal/bus"
)

// State represents the controller's auth lifecycle state.
type State string

const (
	// Bootstrapping is the initial state while the persisted session is
	// being reconciled against the backend.
	Bootstrapping State = "BOOTSTRAPPING"
	// Authenticated means a token is held (valid or optimistically kept).
	Authenticated State = "AUTHENTICATED"
	// Unauthenticated means no token is held and a login is required.
	Unauthenticated State = "UNAUTHENTICATED"
)

var validTransitions = map[State][]State{
	Bootstrapping:   {Authenticated, Unauthenticated},
	Authenticated:   {Authenticated, Unauthenticated},
	Unauthenticated: {Authenticated, Unauthenticated},
}

// machine tracks and enforces auth state transitions, publishing each one
// on the bus.
type machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

func newMachine(b *bus.Bus) *machine {
	return &machine{current: Bootstrapping, bus: b}
}

func (m *machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *machine) Transition(to State) error {
	m.mu.Lock()
	if !slices.Contains(validTransitions[m.current], to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.bus != nil && from != to {
		m.bus.Publish(bus.Event{
			Kind:    bus.KindSessionStatusChanged,
			Payload: StatusChange{From: from, To: to},
		})
	}
	return nil
}

// StatusChange is the payload for session.status_changed events.
type StatusChange struct {
	From State
	To   State
}
