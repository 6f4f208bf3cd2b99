package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/events"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/logx"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// Notifier is the advisory "ready for pickup" relay. It never fails loudly:
// losing a ping must not block check-out or anything else, so store errors
// are logged and swallowed.
type Notifier struct {
	st *store.Store
}

func NewNotifier(st *store.Store) *Notifier {
	return &Notifier{st: st}
}

// Notify is fire-and-forget from the caller's point of view.
func (n *Notifier) Notify(ctx context.Context, childID, sessionID, message string) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "Seu filho está pronto para ser retirado."
	}
	note := &models.Notification{
		ID:        uuid.NewString(),
		ChildID:   childID,
		SessionID: sessionID,
		Message:   msg,
		CreatedAt: time.Now(),
	}
	if err := n.st.AddNotification(ctx, note); err != nil {
		logx.L().WithError(err).
			WithField("child_id", childID).
			Warn("notification dropped")
	}
}

// SubscribeChild delivers each new notification for the child as it is
// created. No replay of history; the guardian's device handles the alert.
func (n *Notifier) SubscribeChild(childID string, fn func(models.Notification)) (cancel func()) {
	return n.st.Bus().Subscribe(events.Notifications, func(e events.Event) {
		note, ok := e.Payload.(models.Notification)
		if !ok || note.ChildID != childID {
			return
		}
		fn(note)
	})
}

// ClearForSession bulk-deletes the session's notifications on close.
// Best-effort: failures are logged only.
func (n *Notifier) ClearForSession(ctx context.Context, sessionID string) {
	if err := n.st.ClearNotifications(ctx, sessionID); err != nil {
		logx.L().WithError(err).
			WithField("session_id", sessionID).
			Warn("clearing notifications failed")
	}
}
