// Package events provides the in-process fan-out bus for engine events.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Bus implements domain.EventPublisher.
var _ domain.EventPublisher = (*Bus)(nil)

// subscriberBuffer is the per-subscriber channel capacity. A full
// channel drops events for that subscriber instead of blocking the
// engine.
const subscriberBuffer = 256

// Bus fans engine events out to subscribers. Publishing never blocks:
// a slow consumer loses events, the engine does not stall.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan domain.Event]string
	closed atomic.Bool
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan domain.Event]string)}
}

// Subscribe registers a named consumer and returns its channel.
// The channel is closed by Close or Unsubscribe.
func (b *Bus) Subscribe(name string) <-chan domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Event, subscriberBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	b.subs[ch] = name
	return ch
}

// Unsubscribe removes a consumer and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		if sub == ch {
			delete(b.subs, sub)
			close(sub)
			return
		}
	}
}

// Publish delivers an event to all subscribers. Missing ID and
// timestamp are filled in. Fire-and-forget: a subscriber whose buffer
// is full is skipped.
func (b *Bus) Publish(ev domain.Event) {
	if b.closed.Load() {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber too slow, drop rather than block the engine.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
