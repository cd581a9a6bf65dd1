package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"trendcharts/internal/config"
	"trendcharts/internal/datasets"
	"trendcharts/internal/datasource"
	"trendcharts/internal/gallery"
	"trendcharts/internal/openai"
	"trendcharts/internal/render"
	"trendcharts/internal/server"
	"trendcharts/internal/storage"
	"trendcharts/internal/telegram"
)

func main() {
	cfg := config.Load()

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	log.Printf("db: opened sqlite at %s", cfg.DBPath)
	if err := storage.InitSchema(context.Background(), db); err != nil {
		log.Fatal(err)
	}
	log.Println("db: schema ensured (series_points, usage tables)")
	store := storage.NewStore(db)

	wb := datasource.NewWorldBank(cfg.WorldBankURL, datasource.WithCache(store, 24*time.Hour))
	g := gallery.New(datasets.Deps{Fetcher: wb}, render.NewCache(cfg.ChartCacheTTL), cfg.ChartWidth, cfg.ChartHeight)

	deps := telegram.Deps{Usage: store, Gallery: g, Width: cfg.ChartWidth, Height: cfg.ChartHeight}
	if cfg.OpenAIKey != "" {
		deps.Narrator = openai.NewNarrator(cfg.OpenAIKey)
	} else {
		log.Println("openai: no key configured, /explain disabled")
	}
	tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, deps)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("telegram: bot initialized, webhook target %s", cfg.WebhookPublicURL)

	mux := server.NewHTTPMux(tg.WebhookHandler, g) // registers /telegram/webhook and /charts/
	addr := ":" + cfg.Port
	log.Println("http: listening on", addr)
	if err := server.ListenAndServe(addr, mux); err != nil {
		log.Println("server error:", err)
		os.Exit(1)
	}
}
