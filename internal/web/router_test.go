package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/config"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/db"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/events"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "web_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return Router(store.New(gdb, events.NewBus()), cfg)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthz(t *testing.T) {
	r := testRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminGate(t *testing.T) {
	r := testRouter(t)

	if rec := doJSON(t, r, http.MethodGet, "/api/sessions", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no cookie: want 401, got %d", rec.Code)
	}

	bad := doJSON(t, r, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("bad credentials: want 401, got %d", bad.Code)
	}
}

// TestFullFlow drives the whole check-in lifecycle through the HTTP surface:
// login, open session, register a child, pre-check-in, redeem, guarded
// close, checkout, close.
func TestFullFlow(t *testing.T) {
	r := testRouter(t)

	// Staff login with the default credential pair.
	login := doJSON(t, r, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "admin123"}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login: want 200, got %d (%s)", login.Code, login.Body)
	}
	cookies := login.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login set no cookie")
	}

	// Open a session.
	open := doJSON(t, r, http.MethodPost, "/api/sessions", map[string]string{
		"category": "Outros", "other_label": "Youth Retreat", "staff": "Equipe",
	}, cookies)
	if open.Code != http.StatusCreated {
		t.Fatalf("open session: want 201, got %d (%s)", open.Code, open.Body)
	}
	var session struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(open.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	// A second open conflicts.
	dup := doJSON(t, r, http.MethodPost, "/api/sessions", map[string]string{"category": "CIFAD"}, cookies)
	if dup.Code != http.StatusConflict {
		t.Errorf("second open: want 409, got %d", dup.Code)
	}

	// Guardian self-service registration (no cookie needed).
	reg := doJSON(t, r, http.MethodPost, "/api/children", map[string]string{
		"given_name": "Ana", "family_name": "Souza", "guardian_name": "Maria Souza",
		"birth_date": "2018-04-12", "whatsapp": "+55 67 98888-1111",
	}, nil)
	if reg.Code != http.StatusCreated {
		t.Fatalf("register child: want 201, got %d (%s)", reg.Code, reg.Body)
	}
	var child struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(reg.Body.Bytes(), &child); err != nil {
		t.Fatalf("decode child: %v", err)
	}

	// Pre-check-in (public): a KIDS-#### code.
	pre := doJSON(t, r, http.MethodPost, "/api/precheckins", map[string]string{"child_id": child.ID}, nil)
	if pre.Code != http.StatusCreated {
		t.Fatalf("precheckin: want 201, got %d (%s)", pre.Code, pre.Body)
	}
	var code struct {
		Code string `json:"Code"`
	}
	if err := json.Unmarshal(pre.Body.Bytes(), &code); err != nil {
		t.Fatalf("decode code: %v", err)
	}
	if !regexp.MustCompile(`^KIDS-[0-9]{4}$`).MatchString(code.Code) {
		t.Fatalf("code %q does not match KIDS-[0-9]{4}", code.Code)
	}

	// The QR for the code renders as a PNG without staff login.
	qr := doJSON(t, r, http.MethodGet, "/qr/"+code.Code+".png", nil, nil)
	if qr.Code != http.StatusOK || qr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("qr: want 200 image/png, got %d %q", qr.Code, qr.Header().Get("Content-Type"))
	}

	// Redeem at the desk, lowercased to exercise normalization.
	redeem := doJSON(t, r, http.MethodPost, "/api/sessions/"+session.ID+"/redeem",
		map[string]string{"code": strings.ToLower(code.Code)}, cookies)
	if redeem.Code != http.StatusOK {
		t.Fatalf("redeem: want 200, got %d (%s)", redeem.Code, redeem.Body)
	}

	// Close is blocked while the child is present.
	blocked := doJSON(t, r, http.MethodPost, "/api/sessions/"+session.ID+"/close", nil, cookies)
	if blocked.Code != http.StatusConflict {
		t.Fatalf("close while occupied: want 409, got %d (%s)", blocked.Code, blocked.Body)
	}

	// Find the presence record and check out with an attestation.
	list := doJSON(t, r, http.MethodGet, "/api/sessions/"+session.ID+"/checkins?status=present", nil, cookies)
	if list.Code != http.StatusOK {
		t.Fatalf("list checkins: want 200, got %d", list.Code)
	}
	var recs []struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode checkins: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 present record, got %d", len(recs))
	}

	noName := doJSON(t, r, http.MethodPost, "/api/checkins/"+recs[0].ID+"/checkout", map[string]string{"guardian_name": ""}, cookies)
	if noName.Code != http.StatusBadRequest {
		t.Errorf("checkout without attestation: want 400, got %d", noName.Code)
	}

	out := doJSON(t, r, http.MethodPost, "/api/checkins/"+recs[0].ID+"/checkout", map[string]string{"guardian_name": "Maria Souza"}, cookies)
	if out.Code != http.StatusOK {
		t.Fatalf("checkout: want 200, got %d (%s)", out.Code, out.Body)
	}

	closed := doJSON(t, r, http.MethodPost, "/api/sessions/"+session.ID+"/close", nil, cookies)
	if closed.Code != http.StatusOK {
		t.Fatalf("close: want 200, got %d (%s)", closed.Code, closed.Body)
	}

	// With the session closed, pre-check-in shuts off.
	gone := doJSON(t, r, http.MethodPost, "/api/precheckins", map[string]string{"child_id": child.ID}, nil)
	if gone.Code != http.StatusConflict {
		t.Errorf("precheckin after close: want 409, got %d", gone.Code)
	}
}
