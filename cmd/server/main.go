package main

import (
	"net/http"

	"github.com/joho/godotenv"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/config"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/db"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/events"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/logx"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/web"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.Load()
	if err != nil {
		logx.L().Fatalf("config: %v", err)
	}
	logx.Setup(cfg.Env)

	if err := db.Init(cfg.DBPath); err != nil {
		logx.L().Fatalf("db init: %v", err)
	}

	st := store.New(db.Conn(), events.NewBus())
	r := web.Router(st, cfg)

	logx.L().WithField("addr", cfg.Addr).Info("IEADMS Kids listening")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logx.L().Fatal(err)
	}
}
