package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// Children is the registry of registered kids. Records outlive sessions and
// are referenced by presence history, which blocks deletion.
type Children struct {
	st *store.Store
}

func NewChildren(st *store.Store) *Children {
	return &Children{st: st}
}

type ChildDetails struct {
	GivenName    string
	FamilyName   string
	BirthDate    time.Time
	GuardianName string
	Whatsapp     string
	Notes        string
}

// normWhatsapp strips everything but digits so wa.me links work.
func normWhatsapp(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *Children) Register(ctx context.Context, d ChildDetails) (*models.Child, error) {
	given := strings.TrimSpace(d.GivenName)
	if given == "" {
		return nil, errs.New(errs.Validation, "missing_name", "child name is required")
	}
	if strings.TrimSpace(d.GuardianName) == "" {
		return nil, errs.New(errs.Validation, "missing_guardian", "guardian name is required")
	}

	child := &models.Child{
		ID:           uuid.NewString(),
		GivenName:    given,
		FamilyName:   strings.TrimSpace(d.FamilyName),
		BirthDate:    d.BirthDate,
		GuardianName: strings.TrimSpace(d.GuardianName),
		Whatsapp:     normWhatsapp(d.Whatsapp),
		Notes:        strings.TrimSpace(d.Notes),
	}
	if err := c.st.AddChild(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

func (c *Children) Get(ctx context.Context, id string) (*models.Child, error) {
	child, err := c.st.GetChild(ctx, id)
	if err != nil && errs.Is(err, errs.NotFound) {
		return nil, errs.New(errs.NotFound, "child_not_found", "child not found")
	}
	return child, err
}

func (c *Children) List(ctx context.Context) ([]models.Child, error) {
	return c.st.ListChildren(ctx)
}

// Search matches a case-insensitive substring of the full name, like the
// desk and pre-check-in pickers type-ahead on.
func (c *Children) Search(ctx context.Context, term string) ([]models.Child, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	all, err := c.st.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return all, nil
	}
	var out []models.Child
	for _, ch := range all {
		full := strings.ToLower(ch.GivenName + " " + ch.FamilyName)
		if strings.Contains(full, term) {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (c *Children) Update(ctx context.Context, id string, up store.ChildUpdate) (*models.Child, error) {
	if up.Whatsapp != nil {
		w := normWhatsapp(*up.Whatsapp)
		up.Whatsapp = &w
	}
	child, err := c.st.UpdateChild(ctx, id, up)
	if err != nil && errs.Is(err, errs.NotFound) {
		return nil, errs.New(errs.NotFound, "child_not_found", "child not found")
	}
	return child, err
}

// Delete refuses while check-in history references the child, so headcount
// and accountability records stay intact.
func (c *Children) Delete(ctx context.Context, id string) error {
	n, err := c.st.CountPresenceForChild(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return errs.New(errs.Conflict, "has_history", "cannot delete: child has %d check-in records", n)
	}
	return c.st.DeleteChild(ctx, id)
}
