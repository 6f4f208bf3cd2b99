package models

import "time"

// Session categories. "Outros" requires a free-text label on the session.
const (
	CategorySantaCeia = "Santa Ceia"
	CategoryObreiros  = "Reunião de Obreiros"
	CategoryUmademats = "Umademats"
	CategoryCIFAD     = "CIFAD"
	CategoryOutros    = "Outros"
)

// Session status
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Presence status
const (
	PresencePresent  = "present"
	PresenceDeparted = "departed"
)

// Pre-check-in code status
const (
	CodePending   = "pending"
	CodeConfirmed = "confirmed"
	CodeExpired   = "expired"
)

type Child struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	GivenName    string `gorm:"not null"`
	FamilyName   string
	BirthDate    time.Time
	GuardianName string
	Whatsapp     string
	Notes        string // free-text medical/behavioral notes
}

// Status: "open" | "closed". At most one session is open at any time;
// enforced by the ux_sessions_open partial index (see internal/db).
type Session struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Category   string
	OtherLabel string // set when Category == "Outros"
	Date       time.Time
	OpenedAt   time.Time
	ClosedAt   *time.Time // nil while open
	Staff      string     // responsible staff, free text
	Status     string     `gorm:"index"`
}

// Status: "present" | "departed". At most one present record per
// (child, session); enforced by the ux_presence_present partial index.
type PresenceRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ChildID   string `gorm:"index;not null"`
	SessionID string `gorm:"index;not null"`

	EntryAt     time.Time
	ExitAt      *time.Time // nil while present
	RetrievedBy string     // checkout attestation, recorded verbatim
	Status      string
}

// Status: "pending" | "confirmed" | "expired". At most one pending code per
// (child, session); re-requesting returns the existing one.
type PrecheckCode struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ChildID   string `gorm:"index;not null"`
	SessionID string `gorm:"index;not null"`

	Code        string `gorm:"index"` // e.g. KIDS-1234
	Status      string
	IssuedAt    time.Time
	ConfirmedAt *time.Time
}

// Advisory "ready for pickup" signal; bulk-cleared when the session closes.
type Notification struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time

	ChildID   string `gorm:"index;not null"`
	SessionID string `gorm:"index;not null"`
	Message   string
}

// DisplayCategory returns the category shown to staff, resolving the
// free-text label for "Outros" sessions.
func (s Session) DisplayCategory() string {
	if s.Category == CategoryOutros && s.OtherLabel != "" {
		return s.OtherLabel
	}
	return s.Category
}

// Categories lists the fixed session category enumeration.
func Categories() []string {
	return []string{CategorySantaCeia, CategoryObreiros, CategoryUmademats, CategoryCIFAD, CategoryOutros}
}
