package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/events"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/logx"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// Sessions manages the service ("culto") lifecycle. The one-open-session rule
// is enforced twice: a friendly pre-check here, and the ux_sessions_open
// index at the store for whoever loses the race.
type Sessions struct {
	st *store.Store
}

func NewSessions(st *store.Store) *Sessions {
	return &Sessions{st: st}
}

// SessionDetails is the staff input for opening a session.
type SessionDetails struct {
	Category   string
	OtherLabel string
	Date       time.Time
	Staff      string
}

func validCategory(c string) bool {
	for _, v := range models.Categories() {
		if v == c {
			return true
		}
	}
	return false
}

// Open creates the session and stamps it open as of now.
func (s *Sessions) Open(ctx context.Context, d SessionDetails) (*models.Session, error) {
	if !validCategory(d.Category) {
		return nil, errs.New(errs.Validation, "invalid_category", "unknown session category %q", d.Category)
	}
	if d.Category == models.CategoryOutros && strings.TrimSpace(d.OtherLabel) == "" {
		return nil, errs.New(errs.Validation, "missing_label", "category %q requires a label", models.CategoryOutros)
	}

	if open, err := s.st.GetOpenSession(ctx); err != nil {
		return nil, err
	} else if open != nil {
		return nil, errs.New(errs.Conflict, "session_open", "a session is already open (%s)", open.DisplayCategory())
	}

	now := time.Now()
	date := d.Date
	if date.IsZero() {
		date = now
	}
	ss := &models.Session{
		ID:         uuid.NewString(),
		Category:   d.Category,
		OtherLabel: strings.TrimSpace(d.OtherLabel),
		Date:       date,
		OpenedAt:   now,
		Staff:      strings.TrimSpace(d.Staff),
		Status:     models.SessionOpen,
	}
	if err := s.st.AddSession(ctx, ss); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another staff client won the open race between our check and
			// this insert.
			return nil, errs.New(errs.Conflict, "session_open", "a session is already open")
		}
		return nil, err
	}
	return ss, nil
}

// Close transitions the session to closed and cascades cleanup of its
// pending codes and notifications. The cascade is best-effort: failures are
// logged and never roll back the close.
func (s *Sessions) Close(ctx context.Context, id string) error {
	ss, err := s.st.GetSession(ctx, id)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return errs.New(errs.NotFound, "session_not_found", "session not found")
		}
		return err
	}
	if ss.Status == models.SessionClosed {
		return errs.New(errs.Conflict, "session_closed", "session is already closed")
	}

	active, err := s.st.ListPresence(ctx, store.PresenceFilter{
		SessionID: id,
		Status:    models.PresencePresent,
	})
	if err != nil {
		return err
	}
	if n := len(active); n > 0 {
		return errs.New(errs.Precondition, "children_present", "close blocked: %d children still present", n)
	}

	now := time.Now()
	closed := models.SessionClosed
	if _, err := s.st.UpdateSession(ctx, id, store.SessionUpdate{Status: &closed, ClosedAt: &now}); err != nil {
		return err
	}

	s.cleanup(ctx, id)
	return nil
}

// cleanup discards the session's pending codes and clears its notifications.
func (s *Sessions) cleanup(ctx context.Context, sessionID string) {
	log := logx.L().WithField("session_id", sessionID)

	pending, err := s.st.ListCodes(ctx, store.CodeFilter{SessionID: sessionID, Status: models.CodePending})
	if err != nil {
		log.WithError(err).Warn("close cascade: listing pending codes failed")
	}
	expired := models.CodeExpired
	for _, c := range pending {
		if _, err := s.st.UpdateCode(ctx, c.ID, store.CodeUpdate{Status: &expired}); err != nil {
			log.WithError(err).WithField("code", c.Code).Warn("close cascade: expiring code failed")
		}
	}

	if err := s.st.ClearNotifications(ctx, sessionID); err != nil {
		log.WithError(err).Warn("close cascade: clearing notifications failed")
	}
}

// GetOpen returns the open session, nil when there is none.
func (s *Sessions) GetOpen(ctx context.Context) (*models.Session, error) {
	return s.st.GetOpenSession(ctx)
}

func (s *Sessions) List(ctx context.Context) ([]models.Session, error) {
	return s.st.ListSessions(ctx)
}

// WatchOpen delivers the current open session (or nil) immediately, then
// again on every session change. The returned cancel stops delivery.
func (s *Sessions) WatchOpen(ctx context.Context, fn func(*models.Session)) (cancel func(), err error) {
	initial, err := s.st.GetOpenSession(ctx)
	if err != nil {
		return nil, err
	}

	cancel = s.st.Bus().Subscribe(events.Sessions, func(events.Event) {
		// Re-query rather than trusting the event payload so subscribers
		// always see the store's answer to "which session is open".
		open, err := s.st.GetOpenSession(ctx)
		if err != nil {
			logx.L().WithError(err).Warn("watch open session: query failed")
			return
		}
		fn(open)
	})

	fn(initial)
	return cancel, nil
}
