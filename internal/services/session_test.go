package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

func TestOpenSession_RejectsSecondOpen(t *testing.T) {
	st := newTestStore(t)
	svc := NewSessions(st)
	ctx := context.Background()

	if _, err := svc.Open(ctx, SessionDetails{Category: models.CategorySantaCeia}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := svc.Open(ctx, SessionDetails{Category: models.CategoryCIFAD})
	if !errs.Is(err, errs.Conflict) {
		t.Fatalf("second open: want Conflict, got %v", err)
	}
}

func TestOpenSession_CategoryValidation(t *testing.T) {
	st := newTestStore(t)
	svc := NewSessions(st)
	ctx := context.Background()

	if _, err := svc.Open(ctx, SessionDetails{Category: "Picnic"}); !errs.Is(err, errs.Validation) {
		t.Errorf("unknown category: want Validation, got %v", err)
	}
	if _, err := svc.Open(ctx, SessionDetails{Category: models.CategoryOutros}); !errs.Is(err, errs.Validation) {
		t.Errorf("Outros without label: want Validation, got %v", err)
	}

	ss, err := svc.Open(ctx, SessionDetails{Category: models.CategoryOutros, OtherLabel: "Youth Retreat"})
	if err != nil {
		t.Fatalf("Outros with label: %v", err)
	}
	if ss.DisplayCategory() != "Youth Retreat" {
		t.Errorf("DisplayCategory: want %q, got %q", "Youth Retreat", ss.DisplayCategory())
	}
}

// TestOpenSession_ConcurrentOpens races N clients opening at once; exactly
// one may win, the rest must see a conflict, never a crash or a second open
// row.
func TestOpenSession_ConcurrentOpens(t *testing.T) {
	st := newTestStore(t)
	svc := NewSessions(st)

	const n = 8
	var wg sync.WaitGroup
	errsCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Open(context.Background(), SessionDetails{Category: models.CategoryUmademats})
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	wins, conflicts := 0, 0
	for err := range errsCh {
		switch {
		case err == nil:
			wins++
		case errs.Is(err, errs.Conflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("want exactly 1 winner, got %d (%d conflicts)", wins, conflicts)
	}

	sessions, err := st.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	open := 0
	for _, s := range sessions {
		if s.Status == models.SessionOpen {
			open++
		}
	}
	if open != 1 {
		t.Errorf("want exactly 1 open session row, got %d", open)
	}
}

func TestCloseSession_BlockedWhileOccupied(t *testing.T) {
	st := newTestStore(t)
	svc := NewSessions(st)
	ledger := NewLedger(st)
	ctx := context.Background()

	ss := seedOpenSession(t, st)
	child := seedChild(t, st, "Ana")
	rec, err := ledger.CheckIn(ctx, child.ID, ss.ID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	if err := svc.Close(ctx, ss.ID); !errs.Is(err, errs.Precondition) {
		t.Fatalf("close while occupied: want Precondition, got %v", err)
	}

	if _, err := ledger.CheckOut(ctx, rec.ID, "Maria Silva"); err != nil {
		t.Fatalf("check out: %v", err)
	}
	if err := svc.Close(ctx, ss.ID); err != nil {
		t.Fatalf("close after checkout: %v", err)
	}

	got, err := st.GetSession(ctx, ss.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != models.SessionClosed || got.ClosedAt == nil {
		t.Errorf("session not closed properly: status=%q closedAt=%v", got.Status, got.ClosedAt)
	}

	// Closing twice is a conflict, not a silent re-close.
	if err := svc.Close(ctx, ss.ID); !errs.Is(err, errs.Conflict) {
		t.Errorf("double close: want Conflict, got %v", err)
	}
}

// TestCloseSession_Cascade verifies pending codes are discarded and
// notifications cleared once the session closes.
func TestCloseSession_Cascade(t *testing.T) {
	st := newTestStore(t)
	svc := NewSessions(st)
	ledger := NewLedger(st)
	precheck := NewPrecheck(st, ledger)
	notifier := NewNotifier(st)
	ctx := context.Background()

	ss := seedOpenSession(t, st)
	child := seedChild(t, st, "Bruno")

	code, err := precheck.Issue(ctx, child.ID, ss.ID)
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	notifier.Notify(ctx, child.ID, ss.ID, "ready for pickup")

	if err := svc.Close(ctx, ss.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	codes, err := st.ListCodes(ctx, store.CodeFilter{SessionID: ss.ID})
	if err != nil {
		t.Fatalf("list codes: %v", err)
	}
	if len(codes) != 1 || codes[0].Status != models.CodeExpired {
		t.Errorf("pending code %s not expired after close: %+v", code.Code, codes)
	}

	notes, err := st.ListNotifications(ctx, ss.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("notifications not cleared after close: %d left", len(notes))
	}
}

// TestWatchOpen verifies the subscription contract: current value delivered
// immediately on subscribe, then again on every session change.
func TestWatchOpen(t *testing.T) {
	st := newTestStore(t)
	svc := NewSessions(st)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []*models.Session
	cancel, err := svc.WatchOpen(ctx, func(ss *models.Session) {
		mu.Lock()
		seen = append(seen, ss)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	mu.Lock()
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("initial delivery: want [nil], got %v", seen)
	}
	mu.Unlock()

	ss, err := svc.Open(ctx, SessionDetails{Category: models.CategoryCIFAD})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	mu.Lock()
	if len(seen) < 2 || seen[len(seen)-1] == nil || seen[len(seen)-1].ID != ss.ID {
		t.Fatalf("after open: want open session delivered, got %v", seen)
	}
	mu.Unlock()

	if err := svc.Close(ctx, ss.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	if last := seen[len(seen)-1]; last != nil {
		t.Errorf("after close: want nil delivered, got %+v", last)
	}
	mu.Unlock()

	// After cancel, no further deliveries.
	n := len(seen)
	cancel()
	if _, err := svc.Open(ctx, SessionDetails{Category: models.CategorySantaCeia}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	mu.Lock()
	if len(seen) != n {
		t.Errorf("delivery after cancel: had %d, now %d", n, len(seen))
	}
	mu.Unlock()
}
