package cart

import (
	"sync"

	"github.com/nwca-cart/internal/logger"
)

// Listener receives cart events with a state snapshot taken at emit time.
type Listener func(event string, state State)

type listenerEntry struct {
	id int
	fn Listener
}

// EventBus is a synchronous in-process listener registry. A panicking
// listener is logged and never blocks the others or the emitting operation.
type EventBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string][]listenerEntry
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[string][]listenerEntry)}
}

// AddEventListener registers a listener and returns a token for removal.
func (b *EventBus) AddEventListener(event string, fn Listener) int {
	if fn == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[event] = append(b.listeners[event], listenerEntry{id: b.nextID, fn: fn})
	return b.nextID
}

// RemoveEventListener drops a previously registered listener.
func (b *EventBus) RemoveEventListener(event string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.listeners[event]
	for i, entry := range entries {
		if entry.id == id {
			b.listeners[event] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

func (b *EventBus) emit(event string, state State) {
	b.mu.Lock()
	entries := make([]listenerEntry, len(b.listeners[event]))
	copy(entries, b.listeners[event])
	b.mu.Unlock()

	for _, entry := range entries {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorw("cart_event_listener_panic", "event", event, "panic", r)
				}
			}()
			entry.fn(event, state)
		}()
	}
}
