package handlers

import (
	"net/http"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
)

// GET /api/stats — dashboard numbers.
func StatsOverview(stats *services.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := stats.Overview(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}

// GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
