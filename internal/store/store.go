// Package store is the data access façade the services depend on: plain CRUD
// over the persisted collections plus change events on an in-process bus.
// Uniqueness rules (one open session, one present record per child+session,
// one pending code per child+session) live in the database as partial unique
// indexes; the losing writer of a race surfaces gorm.ErrDuplicatedKey, which
// callers translate into their domain conflict.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/events"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
)

// ErrDuplicate reports a unique-index violation, i.e. losing one of the
// conditional-write races.
var ErrDuplicate = errors.New("store: duplicate row")

type Store struct {
	db  *gorm.DB
	bus *events.Bus
}

func New(db *gorm.DB, bus *events.Bus) *Store {
	return &Store{db: db, bus: bus}
}

// Bus exposes the change bus for subscription-style reads.
func (s *Store) Bus() *events.Bus { return s.bus }

// wrap maps gorm errors to the store contract. Anything that is neither
// not-found nor a duplicate is a backend fault and surfaces as Transient.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.New(errs.NotFound, "not_found", "record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return errs.New(errs.Transient, "backend_unavailable", "storage backend error: %v", err)
	}
}

// --- Children ---

func (s *Store) ListChildren(ctx context.Context) ([]models.Child, error) {
	var out []models.Child
	err := s.db.WithContext(ctx).Order("given_name, family_name").Find(&out).Error
	return out, wrap(err)
}

func (s *Store) GetChild(ctx context.Context, id string) (*models.Child, error) {
	var c models.Child
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &c, nil
}

func (s *Store) AddChild(ctx context.Context, c *models.Child) error {
	if err := wrap(s.db.WithContext(ctx).Create(c).Error); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Topic: events.Children, Payload: *c})
	return nil
}

// ChildUpdate mutates only the fields that are set.
type ChildUpdate struct {
	GivenName    *string
	FamilyName   *string
	BirthDate    *time.Time
	GuardianName *string
	Whatsapp     *string
	Notes        *string
}

func (s *Store) UpdateChild(ctx context.Context, id string, up ChildUpdate) (*models.Child, error) {
	var c models.Child
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if up.GivenName != nil {
			c.GivenName = *up.GivenName
		}
		if up.FamilyName != nil {
			c.FamilyName = *up.FamilyName
		}
		if up.BirthDate != nil {
			c.BirthDate = *up.BirthDate
		}
		if up.GuardianName != nil {
			c.GuardianName = *up.GuardianName
		}
		if up.Whatsapp != nil {
			c.Whatsapp = *up.Whatsapp
		}
		if up.Notes != nil {
			c.Notes = *up.Notes
		}
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	s.bus.Publish(events.Event{Topic: events.Children, Payload: c})
	return &c, nil
}

func (s *Store) DeleteChild(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Child{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.NotFound, "child_not_found", "child not found")
	}
	return nil
}

func (s *Store) CountPresenceForChild(ctx context.Context, childID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PresenceRecord{}).
		Where("child_id = ?", childID).Count(&n).Error
	return n, wrap(err)
}

// --- Sessions ---

func (s *Store) ListSessions(ctx context.Context) ([]models.Session, error) {
	var out []models.Session
	err := s.db.WithContext(ctx).Order("opened_at DESC").Find(&out).Error
	return out, wrap(err)
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var ss models.Session
	if err := s.db.WithContext(ctx).First(&ss, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &ss, nil
}

// GetOpenSession returns the open session, or nil without error when there
// is none.
func (s *Store) GetOpenSession(ctx context.Context) (*models.Session, error) {
	var ss models.Session
	err := s.db.WithContext(ctx).First(&ss, "status = ?", models.SessionOpen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err)
	}
	return &ss, nil
}

func (s *Store) AddSession(ctx context.Context, ss *models.Session) error {
	if err := wrap(s.db.WithContext(ctx).Create(ss).Error); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Topic: events.Sessions, Payload: *ss})
	return nil
}

// SessionUpdate mutates only the fields that are set.
type SessionUpdate struct {
	Status   *string
	ClosedAt *time.Time
	Staff    *string
}

func (s *Store) UpdateSession(ctx context.Context, id string, up SessionUpdate) (*models.Session, error) {
	var ss models.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ss, "id = ?", id).Error; err != nil {
			return err
		}
		if up.Status != nil {
			ss.Status = *up.Status
		}
		if up.ClosedAt != nil {
			ss.ClosedAt = up.ClosedAt
		}
		if up.Staff != nil {
			ss.Staff = *up.Staff
		}
		return tx.Save(&ss).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	s.bus.Publish(events.Event{Topic: events.Sessions, Payload: ss})
	return &ss, nil
}

// --- Presence ---

// PresenceFilter narrows ListPresence. Zero values mean "any".
type PresenceFilter struct {
	SessionID string
	ChildID   string
	Status    string
}

func (s *Store) ListPresence(ctx context.Context, f PresenceFilter) ([]models.PresenceRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.PresenceRecord{})
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.ChildID != "" {
		q = q.Where("child_id = ?", f.ChildID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.PresenceRecord
	err := q.Order("entry_at").Find(&out).Error
	return out, wrap(err)
}

func (s *Store) GetPresence(ctx context.Context, id string) (*models.PresenceRecord, error) {
	var p models.PresenceRecord
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

func (s *Store) AddPresence(ctx context.Context, p *models.PresenceRecord) error {
	if err := wrap(s.db.WithContext(ctx).Create(p).Error); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Topic: events.Presence, Payload: *p})
	return nil
}

// PresenceUpdate mutates only the fields that are set.
type PresenceUpdate struct {
	Status      *string
	ExitAt      *time.Time
	RetrievedBy *string
}

func (s *Store) UpdatePresence(ctx context.Context, id string, up PresenceUpdate) (*models.PresenceRecord, error) {
	var p models.PresenceRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if up.Status != nil {
			p.Status = *up.Status
		}
		if up.ExitAt != nil {
			p.ExitAt = up.ExitAt
		}
		if up.RetrievedBy != nil {
			p.RetrievedBy = *up.RetrievedBy
		}
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	s.bus.Publish(events.Event{Topic: events.Presence, Payload: p})
	return &p, nil
}

// --- Codes ---

type CodeFilter struct {
	SessionID string
	ChildID   string
	Status    string
	Code      string
}

func (s *Store) ListCodes(ctx context.Context, f CodeFilter) ([]models.PrecheckCode, error) {
	q := s.db.WithContext(ctx).Model(&models.PrecheckCode{})
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.ChildID != "" {
		q = q.Where("child_id = ?", f.ChildID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Code != "" {
		q = q.Where("code = ?", f.Code)
	}
	var out []models.PrecheckCode
	err := q.Order("issued_at").Find(&out).Error
	return out, wrap(err)
}

func (s *Store) AddCode(ctx context.Context, c *models.PrecheckCode) error {
	if err := wrap(s.db.WithContext(ctx).Create(c).Error); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Topic: events.Codes, Payload: *c})
	return nil
}

// CodeUpdate mutates only the fields that are set.
type CodeUpdate struct {
	Status      *string
	ConfirmedAt *time.Time
}

func (s *Store) UpdateCode(ctx context.Context, id string, up CodeUpdate) (*models.PrecheckCode, error) {
	var c models.PrecheckCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if up.Status != nil {
			c.Status = *up.Status
		}
		if up.ConfirmedAt != nil {
			c.ConfirmedAt = up.ConfirmedAt
		}
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	s.bus.Publish(events.Event{Topic: events.Codes, Payload: c})
	return &c, nil
}

// --- Notifications ---

func (s *Store) AddNotification(ctx context.Context, n *models.Notification) error {
	if err := wrap(s.db.WithContext(ctx).Create(n).Error); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Topic: events.Notifications, Payload: *n})
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, sessionID string) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at").Find(&out).Error
	return out, wrap(err)
}

func (s *Store) ClearNotifications(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Delete(&models.Notification{}, "session_id = ?", sessionID).Error
	return wrap(err)
}
