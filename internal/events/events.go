package events

import "sync"

// Topic identifies one entity collection on the bus.
type Topic string

const (
	Sessions      Topic = "sessions"
	Children      Topic = "children"
	Presence      Topic = "presence"
	Codes         Topic = "codes"
	Notifications Topic = "notifications"
)

// Event is one change to a stored entity. Payload is the entity after the
// change (models.Session, models.PresenceRecord, ...).
type Event struct {
	Topic   Topic
	Payload any
}

// Bus fans store changes out to in-process subscribers. Delivery is
// synchronous under one mutex, so subscribers on the same topic observe
// each entity's states in write order. Callbacks must not block.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[Topic]map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]func(Event))}
}

// Subscribe registers fn for a topic and returns a cancel func. Cancel is
// idempotent and safe to call concurrently with Publish.
func (b *Bus) Subscribe(t Topic, fn func(Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[t] == nil {
		b.subs[t] = make(map[int]func(Event))
	}
	id := b.next
	b.next++
	b.subs[t][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[t], id)
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, fn := range b.subs[e.Topic] {
		fn(e)
	}
}
