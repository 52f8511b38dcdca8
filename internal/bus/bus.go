package bus

import (
	"strings"
	"sync"
	"time"
)

// Well-known event kinds. Subscribers filter by prefix, so "conv." matches
// every conversation event.
const (
	KindSessionChanged       = "session.changed"
	KindSessionStatusChanged = "session.status_changed"

	KindRealtimeMessage      = "rt.message"
	KindRealtimeConnected    = "rt.connected"
	KindRealtimeDisconnected = "rt.disconnected"

	KindConvUpdated           = "conv.updated"
	KindConvMessageAck        = "conv.message_ack"
	KindConvMessageSendFailed = "conv.message_send_failed"
)

// Event is a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Bus is an in-process publish/subscribe event bus with prefix filtering.
// Delivery is non-blocking: an event is dropped for a subscriber whose
// buffer is full rather than stalling the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Publish delivers evt to every subscriber whose prefix matches evt.Kind.
// A zero Timestamp is filled in.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind, sub.prefix) {
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// Subscribe registers a subscriber for all kinds starting with prefix and
// returns its channel plus an unsubscribe function.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	if bufSize <= 0 {
		bufSize = 16
	}
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscription{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
