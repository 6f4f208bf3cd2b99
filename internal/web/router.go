package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/config"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/handlers"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/services"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

func Router(st *store.Store, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	children := services.NewChildren(st)
	sessions := services.NewSessions(st)
	ledger := services.NewLedger(st)
	precheck := services.NewPrecheck(st, ledger)
	notifier := services.NewNotifier(st)
	stats := services.NewStats(st)

	r.Get("/healthz", handlers.Health)

	// Auth
	r.Post("/api/login", handlers.Login(cfg))
	r.Post("/api/logout", handlers.Logout)

	// Parent-facing (no staff login): registration, code issue, streams.
	r.Post("/api/children", handlers.ChildCreate(children))
	r.Get("/api/children", handlers.ChildList(children))
	r.Get("/api/sessions/open", handlers.SessionOpenShow(sessions))
	r.Get("/api/sessions/open/stream", handlers.SessionOpenStream(sessions))
	r.Post("/api/precheckins", handlers.PrecheckIssue(sessions, precheck))
	r.Get("/api/notifications/stream", handlers.NotifyStream(notifier))
	r.Get("/qr/{code}.png", handlers.QR(precheck, cfg.BaseURL))

	// Staff-guarded desk and admin operations.
	r.Group(func(ad chi.Router) {
		ad.Use(handlers.RequireAdmin(cfg))

		ad.Get("/api/children/{id}", handlers.ChildShow(children))
		ad.Put("/api/children/{id}", handlers.ChildUpdate(children))
		ad.Delete("/api/children/{id}", handlers.ChildDelete(children))

		ad.Get("/api/sessions", handlers.SessionList(sessions))
		ad.Post("/api/sessions", handlers.SessionOpen(sessions))
		ad.Post("/api/sessions/{id}/close", handlers.SessionClose(sessions))

		ad.Post("/api/sessions/{id}/checkins", handlers.CheckinCreate(ledger))
		ad.Get("/api/sessions/{id}/checkins", handlers.CheckinList(ledger))
		ad.Post("/api/sessions/{id}/redeem", handlers.CheckinRedeem(precheck))
		ad.Post("/api/checkins/{id}/checkout", handlers.CheckoutConfirm(ledger))
		ad.Get("/api/checkins/{id}/receipt", handlers.CheckinReceipt(ledger))

		ad.Post("/api/notifications", handlers.NotifyCreate(notifier))
		ad.Get("/api/stats", handlers.StatsOverview(stats))
	})

	return r
}
