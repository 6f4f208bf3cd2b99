package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/db"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/events"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// newTestStore returns a store over an isolated in-file SQLite database in a
// temp directory, with the partial unique indexes in place.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return store.New(gdb, events.NewBus())
}

func seedChild(t *testing.T, st *store.Store, given string) *models.Child {
	t.Helper()
	child, err := NewChildren(st).Register(context.Background(), ChildDetails{
		GivenName:    given,
		FamilyName:   "Silva",
		GuardianName: "Maria Silva",
		Whatsapp:     "+55 (67) 99999-0000",
	})
	if err != nil {
		t.Fatalf("seed child: %v", err)
	}
	return child
}

func seedOpenSession(t *testing.T, st *store.Store) *models.Session {
	t.Helper()
	ss, err := NewSessions(st).Open(context.Background(), SessionDetails{
		Category: models.CategorySantaCeia,
		Staff:    "Equipe Kids",
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return ss
}
