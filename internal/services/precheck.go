package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// CodePrefix is the literal prefix parents read over the desk. The full
// format is KIDS- plus four digits, e.g. KIDS-1234.
const CodePrefix = "KIDS-"

var bareSuffixRE = regexp.MustCompile(`^[0-9]{4}$`)

// NormalizeCode canonicalizes user input: trims, uppercases, and accepts a
// bare 4-digit suffix by prepending the prefix.
func NormalizeCode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if bareSuffixRE.MatchString(s) {
		return CodePrefix + s
	}
	return s
}

// Precheck issues and redeems pre-check-in codes binding a child to the
// open session before arrival.
type Precheck struct {
	st     *store.Store
	ledger *Ledger
}

func NewPrecheck(st *store.Store, ledger *Ledger) *Precheck {
	return &Precheck{st: st, ledger: ledger}
}

// Issue is an idempotent get-or-create: re-requesting while a pending code
// exists returns the same code instead of minting another.
func (p *Precheck) Issue(ctx context.Context, childID, sessionID string) (*models.PrecheckCode, error) {
	ss, err := p.st.GetSession(ctx, sessionID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "session_not_found", "session not found")
		}
		return nil, err
	}
	if ss.Status != models.SessionOpen {
		return nil, errs.New(errs.Conflict, "session_not_open", "pre-check-in is only available while a session is open")
	}
	if _, err := p.st.GetChild(ctx, childID); err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "child_not_found", "child not found")
		}
		return nil, err
	}

	existing, err := p.st.ListCodes(ctx, store.CodeFilter{
		ChildID:   childID,
		SessionID: sessionID,
		Status:    models.CodePending,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	codeStr, err := p.generate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	code := &models.PrecheckCode{
		ID:        uuid.NewString(),
		ChildID:   childID,
		SessionID: sessionID,
		Code:      codeStr,
		Status:    models.CodePending,
		IssuedAt:  time.Now(),
	}
	if err := p.st.AddCode(ctx, code); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Concurrent request for the same child won; hand out its code.
			again, lerr := p.st.ListCodes(ctx, store.CodeFilter{
				ChildID:   childID,
				SessionID: sessionID,
				Status:    models.CodePending,
			})
			if lerr == nil && len(again) > 0 {
				return &again[0], nil
			}
			return nil, errs.New(errs.Conflict, "code_conflict", "could not issue code, try again")
		}
		return nil, err
	}
	return code, nil
}

// generate draws KIDS-#### codes until one is unused within the session.
// The numeric space is small, so an exact collision gets retried.
func (p *Precheck) generate(ctx context.Context, sessionID string) (string, error) {
	for i := 0; i < 20; i++ {
		code := fmt.Sprintf("%s%04d", CodePrefix, 1000+rand.Intn(9000))
		taken, err := p.st.ListCodes(ctx, store.CodeFilter{SessionID: sessionID, Code: code})
		if err != nil {
			return "", err
		}
		if len(taken) == 0 {
			return code, nil
		}
	}
	return "", errs.New(errs.Transient, "code_space_exhausted", "could not generate a unique code")
}

// FindByCode resolves a normalized code string to its record, preferring a
// pending one. Used by the QR endpoint to verify before rendering.
func (p *Precheck) FindByCode(ctx context.Context, raw string) (*models.PrecheckCode, error) {
	norm := NormalizeCode(raw)
	matches, err := p.st.ListCodes(ctx, store.CodeFilter{Code: norm})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errs.New(errs.NotFound, "code_not_found", "code %q not found", norm)
	}
	for i := range matches {
		if matches[i].Status == models.CodePending {
			return &matches[i], nil
		}
	}
	return &matches[len(matches)-1], nil
}

// RedeemResult is what the desk shows after a code is accepted.
type RedeemResult struct {
	Child    models.Child
	Code     models.PrecheckCode
	Presence models.PresenceRecord
}

// Redeem consumes the code at the check-in desk. It is idempotent both ways:
// redeeming an already-confirmed code returns the confirmed state, and
// redeeming for an already-present child just confirms the code.
func (p *Precheck) Redeem(ctx context.Context, raw, sessionID string) (*RedeemResult, error) {
	norm := NormalizeCode(raw)
	if !strings.HasPrefix(norm, CodePrefix) || norm == CodePrefix {
		return nil, errs.New(errs.NotFound, "code_not_found", "invalid code %q", raw)
	}

	matches, err := p.st.ListCodes(ctx, store.CodeFilter{SessionID: sessionID, Code: norm})
	if err != nil {
		return nil, err
	}

	var code *models.PrecheckCode
	for i := range matches {
		switch matches[i].Status {
		case models.CodePending:
			code = &matches[i]
		case models.CodeConfirmed:
			// Second redemption of the same code: no-op, return current state.
			return p.result(ctx, &matches[i])
		}
	}
	if code == nil {
		return nil, errs.New(errs.NotFound, "code_not_found", "no pending code %q in this session", norm)
	}

	if _, err := p.ledger.CheckIn(ctx, code.ChildID, sessionID); err != nil && !errs.Is(err, errs.AlreadyPresent) {
		return nil, err
	}

	now := time.Now()
	confirmed := models.CodeConfirmed
	updated, err := p.st.UpdateCode(ctx, code.ID, store.CodeUpdate{Status: &confirmed, ConfirmedAt: &now})
	if err != nil {
		return nil, err
	}
	return p.result(ctx, updated)
}

func (p *Precheck) result(ctx context.Context, code *models.PrecheckCode) (*RedeemResult, error) {
	child, err := p.st.GetChild(ctx, code.ChildID)
	if err != nil {
		return nil, err
	}
	recs, err := p.st.ListPresence(ctx, store.PresenceFilter{
		ChildID:   code.ChildID,
		SessionID: code.SessionID,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errs.New(errs.NotFound, "presence_not_found", "no check-in record for code %s", code.Code)
	}
	return &RedeemResult{
		Child:    *child,
		Code:     *code,
		Presence: recs[len(recs)-1],
	}, nil
}
