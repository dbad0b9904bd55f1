package main

import (
	"context"
	"log"
	"net/http"

	"gigscout/internal/logging"
	"gigscout/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal(err, "database unavailable")
	}
	defer db.Close()

	dataStore := store.New(db)

	registry, err := bootstrap(ctx, db, dataStore)
	if err != nil {
		logger.Fatal(err, "bootstrap failed")
	}

	svcs := newServices(cfg, registry, dataStore, logger)
	startScheduler(ctx, cfg, svcs, logger)

	handler := newHTTPHandler(cfg, svcs, dataStore, logger)

	logger.WithFields(map[string]interface{}{
		"addr":    cfg.Addr,
		"sources": registry.Sources(),
	}).Info().Msg("gigscout listening")

	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal(err, "server error")
	}
}
