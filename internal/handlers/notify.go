package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
)

type notifyReq struct {
	ChildID   string `json:"child_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message"`
}

// POST /api/notifications — staff pings the waiting guardian. Always 202:
// delivery is advisory and failures are only logged.
func NotifyCreate(notifier *services.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notifyReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		notifier.Notify(r.Context(), req.ChildID, req.SessionID, req.Message)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// GET /api/notifications/stream?child_id= — SSE of new notifications for one
// child. No replay; the client triggers its own device alert on receipt.
func NotifyStream(notifier *services.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		childID := r.URL.Query().Get("child_id")
		if childID == "" {
			writeError(w, errs.New(errs.Validation, "missing_child", "child_id is required"))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		incoming := make(chan models.Notification, 8)
		cancel := notifier.SubscribeChild(childID, func(n models.Notification) {
			select {
			case incoming <- n:
			default: // advisory signal, dropping beats blocking the bus
			}
		})
		defer cancel()

		for {
			select {
			case <-r.Context().Done():
				return
			case n := <-incoming:
				payload, _ := json.Marshal(n)
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
