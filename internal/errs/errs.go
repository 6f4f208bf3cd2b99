package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. Handlers map kinds to HTTP statuses;
// services decide which kinds are soft (treated as success-equivalent).
type Kind int

const (
	KindUnknown Kind = iota
	Conflict
	NotFound
	AlreadyPresent
	AlreadyDeparted
	Validation
	Precondition
	Transient
)

// Error carries a kind, a stable machine code for the API, and a
// human-readable message.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from any error in the chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf extracts the stable machine code, "" otherwise.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }
