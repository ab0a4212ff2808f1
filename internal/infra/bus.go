package infra

import "sync"

// EventType represents the type of event in the system
type EventType int

const (
	SessionReceived EventType = iota
	StreamFlattened
	BillingStateReduced
	SessionRejected
)

// String returns the string representation of the EventType
func (et EventType) String() string {
	switch et {
	case SessionReceived:
		return "SessionReceived"
	case StreamFlattened:
		return "StreamFlattened"
	case BillingStateReduced:
		return "BillingStateReduced"
	case SessionRejected:
		return "SessionRejected"
	default:
		return "Unknown"
	}
}

type Event interface{ EventType() EventType }
type Handler func(Event)

// Bus delivers events synchronously to subscribers, in subscription order.
// Publish and Subscribe may be called from multiple goroutines; handlers must
// then be safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Handler
}

func NewBus() *Bus { return &Bus{subs: map[EventType][]Handler{}} }

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.subs[e.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

func (b *Bus) Subscribe(evt EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[evt] = append(b.subs[evt], h)
}
