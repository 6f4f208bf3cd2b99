package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
)

type sessionReq struct {
	Category   string `json:"category" validate:"required"`
	OtherLabel string `json:"other_label"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Staff      string `json:"staff"`
}

// POST /api/sessions — opens a session; 409 when one is already open.
func SessionOpen(sessions *services.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		var date time.Time
		if req.Date != "" {
			date, _ = time.Parse("2006-01-02", req.Date)
		}
		ss, err := sessions.Open(r.Context(), services.SessionDetails{
			Category:   req.Category,
			OtherLabel: req.OtherLabel,
			Date:       date,
			Staff:      req.Staff,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ss)
	}
}

// POST /api/sessions/{id}/close — 409 with the live count while children
// remain present.
func SessionClose(sessions *services.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
	}
}

// GET /api/sessions
func SessionList(sessions *services.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := sessions.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/sessions/open — 200 with the session, or 200 with null.
func SessionOpenShow(sessions *services.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, err := sessions.GetOpen(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ss)
	}
}

// GET /api/sessions/open/stream — SSE: current open session immediately,
// then on every change. Parents' clients use it to gate pre-check-in.
func SessionOpenStream(sessions *services.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		// The bus delivers from the writer's goroutine; bridge through a
		// channel so only this handler touches the ResponseWriter.
		updates := make(chan *models.Session, 8)
		cancel, err := sessions.WatchOpen(r.Context(), func(ss *models.Session) {
			select {
			case updates <- ss:
			default: // slow client, drop; next change re-delivers state
			}
		})
		if err != nil {
			writeError(w, err)
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		for {
			select {
			case <-r.Context().Done():
				return
			case ss := <-updates:
				payload, _ := json.Marshal(ss)
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
