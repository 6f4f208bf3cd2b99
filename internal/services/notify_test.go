package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
)

func TestNotify_DeliversToMatchingChildOnly(t *testing.T) {
	st := newTestStore(t)
	notifier := NewNotifier(st)
	ctx := context.Background()

	ss := seedOpenSession(t, st)
	a := seedChild(t, st, "Pedro")
	b := seedChild(t, st, "Rita")

	var mu sync.Mutex
	var got []models.Notification
	cancel := notifier.SubscribeChild(a.ID, func(n models.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})
	defer cancel()

	notifier.Notify(ctx, b.ID, ss.ID, "wrong child")
	notifier.Notify(ctx, a.ID, ss.ID, "ready for pickup")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("want 1 delivery, got %d", len(got))
	}
	if got[0].ChildID != a.ID || got[0].Message != "ready for pickup" {
		t.Errorf("bad delivery: %+v", got[0])
	}
}

func TestNotify_DefaultMessage(t *testing.T) {
	st := newTestStore(t)
	notifier := NewNotifier(st)
	ctx := context.Background()

	ss := seedOpenSession(t, st)
	child := seedChild(t, st, "Sara")

	notifier.Notify(ctx, child.ID, ss.ID, "  ")

	notes, err := st.ListNotifications(ctx, ss.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 1 || notes[0].Message == "" {
		t.Errorf("want one notification with a default message, got %+v", notes)
	}
}

// TestNotify_NoReplay: subscribing after the fact delivers nothing; only new
// notifications flow to subscribers.
func TestNotify_NoReplay(t *testing.T) {
	st := newTestStore(t)
	notifier := NewNotifier(st)
	ctx := context.Background()

	ss := seedOpenSession(t, st)
	child := seedChild(t, st, "Tiago")

	notifier.Notify(ctx, child.ID, ss.ID, "before subscribe")

	delivered := 0
	cancel := notifier.SubscribeChild(child.ID, func(models.Notification) { delivered++ })
	defer cancel()

	if delivered != 0 {
		t.Errorf("historical notification replayed %d times", delivered)
	}
}

func TestClearForSession(t *testing.T) {
	st := newTestStore(t)
	notifier := NewNotifier(st)
	ctx := context.Background()

	ss := seedOpenSession(t, st)
	child := seedChild(t, st, "Vera")

	notifier.Notify(ctx, child.ID, ss.ID, "ping")
	notifier.ClearForSession(ctx, ss.ID)

	notes, err := st.ListNotifications(ctx, ss.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("want 0 notifications after clear, got %d", len(notes))
	}

	// Clearing an already-empty session is a quiet no-op.
	notifier.ClearForSession(ctx, ss.ID)
}
