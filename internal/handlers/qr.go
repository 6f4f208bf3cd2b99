package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
)

// GET /qr/{code}.png — renders the pre-check-in code as a QR image so the
// guardian can show it at the desk instead of reading digits aloud.
func QR(precheck *services.Precheck, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "code")
		if raw == "" {
			http.NotFound(w, r)
			return
		}
		code, err := precheck.FindByCode(r.Context(), raw)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		// Encode a URL so scanning at the desk opens redemption directly.
		target := baseURL + "/checkin?code=" + url.QueryEscape(code.Code)

		png, err := qrcode.Encode(target, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to generate qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
