package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/config"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
)

const adminCookieName = "kids_admin"

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/login — checks the static credential pair and sets a signed
// session cookie.
func Login(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.AdminUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.AdminPassword)) == 1
		if !userOK || !passOK {
			writeJSON(w, http.StatusUnauthorized, apiError{Error: "bad_credentials", Message: "invalid username or password"})
			return
		}

		claims := jwt.RegisteredClaims{
			Subject:   req.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			writeError(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(24 * time.Hour),
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// POST /api/logout
func Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RequireAdmin blocks access unless the session cookie verifies.
func RequireAdmin(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(adminCookieName)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, apiError{Error: "not_logged_in", Message: "staff login required"})
				return
			}
			_, err = jwt.ParseWithClaims(c.Value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errs.New(errs.Validation, "bad_token", "unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, apiError{Error: "bad_token", Message: "session expired, log in again"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
