package service

import "sync"

// Event resources and actions published by a widget.
const (
	ResourceLayers  = "layers"
	ResourceNotices = "notices"

	ActionLoaded      = "loaded"
	ActionActivated   = "activated"
	ActionDeactivated = "deactivated"
	ActionFailed      = "failed"
)

// Event represents a change in widget state.
type Event struct {
	Resource string // e.g. "layers"
	Action   string // "loaded", "activated", "deactivated", "failed"
	ID       string // layer name
	Message  string // user-facing text for notices
}

// EventBus is a simple fan-out pub/sub for widget events. Each widget owns
// its own bus.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
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

// Subscribe returns a buffered channel that receives events. After Close
// the channel is returned already closed.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown channels
// are ignored.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Close unsubscribes everyone.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
