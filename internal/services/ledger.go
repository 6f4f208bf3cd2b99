package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// Ledger records physical presence per child per session. The no-duplicate
// rule is the safety-critical invariant of the whole system: a child must
// never hold two present records in the same session.
type Ledger struct {
	st *store.Store
}

func NewLedger(st *store.Store) *Ledger {
	return &Ledger{st: st}
}

// CheckIn registers the child as present in the session. Returns
// AlreadyPresent when an active record exists; callers that race (code
// redemption vs. the desk) treat that as "child is now present".
func (l *Ledger) CheckIn(ctx context.Context, childID, sessionID string) (*models.PresenceRecord, error) {
	child, err := l.st.GetChild(ctx, childID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "child_not_found", "child not found")
		}
		return nil, err
	}

	ss, err := l.st.GetSession(ctx, sessionID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "session_not_found", "session not found")
		}
		return nil, err
	}
	if ss.Status != models.SessionOpen {
		return nil, errs.New(errs.Conflict, "session_not_open", "session is not open for check-in")
	}

	active, err := l.st.ListPresence(ctx, store.PresenceFilter{
		ChildID:   childID,
		SessionID: sessionID,
		Status:    models.PresencePresent,
	})
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, errs.New(errs.AlreadyPresent, "already_present", "%s is already present", child.GivenName)
	}

	rec := &models.PresenceRecord{
		ID:        uuid.NewString(),
		ChildID:   childID,
		SessionID: sessionID,
		EntryAt:   time.Now(),
		Status:    models.PresencePresent,
	}
	if err := l.st.AddPresence(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the concurrent check-in race; the child is present either way.
			return nil, errs.New(errs.AlreadyPresent, "already_present", "%s is already present", child.GivenName)
		}
		return nil, err
	}
	return rec, nil
}

// CheckOut releases the child to the named guardian. The attestation name is
// required and stored verbatim; no identity verification happens here.
func (l *Ledger) CheckOut(ctx context.Context, presenceID, guardianName string) (*models.PresenceRecord, error) {
	name := strings.TrimSpace(guardianName)
	if name == "" {
		return nil, errs.New(errs.Validation, "missing_attestation", "the name of who is retrieving the child is required")
	}

	rec, err := l.st.GetPresence(ctx, presenceID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "presence_not_found", "check-in record not found")
		}
		return nil, err
	}
	if rec.Status == models.PresenceDeparted {
		return nil, errs.New(errs.AlreadyDeparted, "already_departed", "child already checked out")
	}

	now := time.Now()
	departed := models.PresenceDeparted
	return l.st.UpdatePresence(ctx, presenceID, store.PresenceUpdate{
		Status:      &departed,
		ExitAt:      &now,
		RetrievedBy: &name,
	})
}

// ListActive returns the live presences for a session, oldest entry first.
func (l *Ledger) ListActive(ctx context.Context, sessionID string) ([]models.PresenceRecord, error) {
	return l.st.ListPresence(ctx, store.PresenceFilter{SessionID: sessionID, Status: models.PresencePresent})
}

func (l *Ledger) ListDeparted(ctx context.Context, sessionID string) ([]models.PresenceRecord, error) {
	return l.st.ListPresence(ctx, store.PresenceFilter{SessionID: sessionID, Status: models.PresenceDeparted})
}

// Receipt is the derived hand-out view for one presence record. It is built
// on read and never stored.
type Receipt struct {
	ChildName    string     `json:"child_name"`
	GuardianName string     `json:"guardian_name"`
	Session      string     `json:"session"`
	EntryAt      time.Time  `json:"entry_at"`
	ExitAt       *time.Time `json:"exit_at,omitempty"`
	RetrievedBy  string     `json:"retrieved_by,omitempty"`
}

func (l *Ledger) Receipt(ctx context.Context, presenceID string) (*Receipt, error) {
	rec, err := l.st.GetPresence(ctx, presenceID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "presence_not_found", "check-in record not found")
		}
		return nil, err
	}
	child, err := l.st.GetChild(ctx, rec.ChildID)
	if err != nil {
		return nil, err
	}
	ss, err := l.st.GetSession(ctx, rec.SessionID)
	if err != nil {
		return nil, err
	}
	return &Receipt{
		ChildName:    strings.TrimSpace(child.GivenName + " " + child.FamilyName),
		GuardianName: child.GuardianName,
		Session:      ss.DisplayCategory(),
		EntryAt:      rec.EntryAt,
		ExitAt:       rec.ExitAt,
		RetrievedBy:  rec.RetrievedBy,
	}, nil
}
