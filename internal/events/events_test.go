package events

import "testing"

func TestBus_SubscribePublishCancel(t *testing.T) {
	b := NewBus()

	var got []Event
	cancel := b.Subscribe(Sessions, func(e Event) { got = append(got, e) })

	b.Publish(Event{Topic: Sessions, Payload: 1})
	b.Publish(Event{Topic: Children, Payload: 2}) // other topic, ignored
	b.Publish(Event{Topic: Sessions, Payload: 3})

	if len(got) != 2 {
		t.Fatalf("want 2 deliveries, got %d", len(got))
	}
	// Synchronous delivery keeps per-topic order.
	if got[0].Payload != 1 || got[1].Payload != 3 {
		t.Errorf("out of order: %+v", got)
	}

	cancel()
	cancel() // idempotent
	b.Publish(Event{Topic: Sessions, Payload: 4})
	if len(got) != 2 {
		t.Errorf("delivery after cancel: %+v", got)
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	b := NewBus()

	a, c := 0, 0
	cancelA := b.Subscribe(Presence, func(Event) { a++ })
	defer cancelA()
	cancelC := b.Subscribe(Presence, func(Event) { c++ })

	b.Publish(Event{Topic: Presence})
	cancelC()
	b.Publish(Event{Topic: Presence})

	if a != 2 {
		t.Errorf("subscriber a: want 2, got %d", a)
	}
	if c != 1 {
		t.Errorf("subscriber c: want 1, got %d", c)
	}
}
