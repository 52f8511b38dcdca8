package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindSessionChanged, Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != KindSessionChanged {
			t.Errorf("got kind %q, want %q", evt.Kind, KindSessionChanged)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("rt.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindSessionStatusChanged})
	b.Publish(Event{Kind: KindRealtimeConnected})

	select {
	case evt := <-ch:
		if evt.Kind != KindRealtimeConnected {
			t.Errorf("got kind %q, want %q", evt.Kind, KindRealtimeConnected)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The session event must not have been delivered to an rt. subscriber.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	unsub()

	b.Publish(Event{Kind: KindSessionChanged})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	b.Publish(Event{Kind: "test.one"})
	// Buffer is full; this one is dropped rather than blocking.
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected second event: %v", evt)
	default:
	}
}
