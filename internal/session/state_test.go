package session

import (
	"testing"

	"github.com/securechat/msgr/internal/bus"
)

func TestMachineStartsBootstrapping(t *testing.T) {
	m := newMachine(bus.New())
	if got := m.Current(); got != Bootstrapping {
		t.Fatalf("initial state = %s, want %s", got, Bootstrapping)
	}
}

func TestMachineValidTransitions(t *testing.T) {
	m := newMachine(bus.New())

	steps := []State{Unauthenticated, Authenticated, Authenticated, Unauthenticated}
	for _, to := range steps {
		if err := m.Transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if got := m.Current(); got != to {
			t.Fatalf("state = %s, want %s", got, to)
		}
	}
}

func TestMachineRejectsReturnToBootstrapping(t *testing.T) {
	m := newMachine(bus.New())
	if err := m.Transition(Authenticated); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := m.Transition(Bootstrapping); err == nil {
		t.Fatal("expected error returning to Bootstrapping")
	}
	if got := m.Current(); got != Authenticated {
		t.Fatalf("state changed on rejected transition: %s", got)
	}
}

func TestMachinePublishesStatusChange(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.KindSessionStatusChanged, 4)
	defer unsub()

	m := newMachine(b)
	if err := m.Transition(Authenticated); err != nil {
		t.Fatalf("transition: %v", err)
	}

	evt := <-ch
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type %T", evt.Payload)
	}
	if change.From != Bootstrapping || change.To != Authenticated {
		t.Fatalf("change = %+v", change)
	}

	// Self-transition is legal but silent.
	if err := m.Transition(Authenticated); err != nil {
		t.Fatalf("self transition: %v", err)
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s for self transition", evt.Kind)
	default:
	}
}
