package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

type childReq struct {
	GivenName    string `json:"given_name" validate:"required"`
	FamilyName   string `json:"family_name"`
	BirthDate    string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	GuardianName string `json:"guardian_name" validate:"required"`
	Whatsapp     string `json:"whatsapp"`
	Notes        string `json:"notes"`
}

// POST /api/children — guardian self-service or staff registration.
func ChildCreate(children *services.Children) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req childReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		var birth time.Time
		if req.BirthDate != "" {
			birth, _ = time.Parse("2006-01-02", req.BirthDate)
		}
		child, err := children.Register(r.Context(), services.ChildDetails{
			GivenName:    req.GivenName,
			FamilyName:   req.FamilyName,
			BirthDate:    birth,
			GuardianName: req.GuardianName,
			Whatsapp:     req.Whatsapp,
			Notes:        req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, child)
	}
}

// GET /api/children?q=
func ChildList(children *services.Children) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := children.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/children/{id}
func ChildShow(children *services.Children) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		child, err := children.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, child)
	}
}

type childUpdateReq struct {
	GivenName    *string `json:"given_name"`
	FamilyName   *string `json:"family_name"`
	BirthDate    *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	GuardianName *string `json:"guardian_name"`
	Whatsapp     *string `json:"whatsapp"`
	Notes        *string `json:"notes"`
}

// PUT /api/children/{id} — partial update; only fields present in the body
// change.
func ChildUpdate(children *services.Children) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req childUpdateReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		up := store.ChildUpdate{
			GivenName:    req.GivenName,
			FamilyName:   req.FamilyName,
			GuardianName: req.GuardianName,
			Whatsapp:     req.Whatsapp,
			Notes:        req.Notes,
		}
		if req.BirthDate != nil {
			birth, err := time.Parse("2006-01-02", *req.BirthDate)
			if err != nil {
				writeError(w, errs.New(errs.Validation, "bad_date", "birth_date must be YYYY-MM-DD"))
				return
			}
			up.BirthDate = &birth
		}
		child, err := children.Update(r.Context(), chi.URLParam(r, "id"), up)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, child)
	}
}

// DELETE /api/children/{id} — blocked while check-in history exists.
func ChildDelete(children *services.Children) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := children.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
