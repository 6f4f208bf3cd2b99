package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
)

type checkinReq struct {
	ChildID string `json:"child_id" validate:"required"`
}

// POST /api/sessions/{id}/checkins — manual check-in at the desk.
func CheckinCreate(ledger *services.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkinReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		rec, err := ledger.CheckIn(r.Context(), req.ChildID, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

type redeemReq struct {
	Code string `json:"code" validate:"required"`
}

// POST /api/sessions/{id}/redeem — consumes a pre-check-in code at the desk.
func CheckinRedeem(precheck *services.Precheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		res, err := precheck.Redeem(r.Context(), req.Code, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"child":    res.Child,
			"code":     res.Code,
			"presence": res.Presence,
		})
	}
}

type checkoutReq struct {
	GuardianName string `json:"guardian_name" validate:"required"`
}

// POST /api/checkins/{id}/checkout — releases the child to the named
// guardian.
func CheckoutConfirm(ledger *services.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		rec, err := ledger.CheckOut(r.Context(), chi.URLParam(r, "id"), req.GuardianName)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// GET /api/sessions/{id}/checkins?status=present|departed
func CheckinList(ledger *services.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		var (
			recs []models.PresenceRecord
			err  error
		)
		switch r.URL.Query().Get("status") {
		case models.PresenceDeparted:
			recs, err = ledger.ListDeparted(r.Context(), sessionID)
		default:
			recs, err = ledger.ListActive(r.Context(), sessionID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// GET /api/checkins/{id}/receipt — the printable hand-out summary.
func CheckinReceipt(ledger *services.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ledger.Receipt(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
