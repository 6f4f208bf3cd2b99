package handlers

import (
	"net/http"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
)

type precheckReq struct {
	ChildID string `json:"child_id" validate:"required"`
}

// POST /api/precheckins — guardian requests a code for the open session.
// Idempotent: re-requesting returns the existing pending code.
func PrecheckIssue(sessions *services.Sessions, precheck *services.Precheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req precheckReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		open, err := sessions.GetOpen(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if open == nil {
			writeError(w, errs.New(errs.Conflict, "session_not_open", "pre-check-in is only available while a session is open"))
			return
		}
		code, err := precheck.Issue(r.Context(), req.ChildID, open.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, code)
	}
}
