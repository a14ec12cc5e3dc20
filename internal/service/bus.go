package service

import "sync"

// Event actions.
const (
	ActionChanged    = "changed"
	ActionLoaded     = "loaded"
	ActionLoadFailed = "load_failed"
)

// Event represents a map style mutation.
type Event struct {
	Resource string // "mapstyle" or "input"
	Action   string // ActionChanged, ActionLoaded, ActionLoadFailed
	ID       string // selected style id
	Err      string // load error, if any
}

// EventBus is a simple fan-out pub/sub for map style events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
