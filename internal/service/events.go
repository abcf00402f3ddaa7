package service

import (
	"sync"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// EventBus fans ledger events out to live feed subscribers. Publishing never
// blocks: a subscriber that cannot keep up drops events rather than stalling
// the request that produced them.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan model.Event]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[chan model.Event]struct{}),
	}
}

func (b *EventBus) Subscribe() chan model.Event {
	ch := make(chan model.Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *EventBus) Unsubscribe(ch chan model.Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *EventBus) Publish(eventType string, userID uuid.UUID, data map[string]any) {
	event := model.Event{
		Type:   eventType,
		UserID: userID,
		Data:   data,
		At:     time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
