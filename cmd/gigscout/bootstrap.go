package main

import (
	"context"
	"database/sql"
	"fmt"

	"gigscout/internal/models"
	"gigscout/internal/scraper"
	"gigscout/internal/store"
)

// seedSource describes one venue whose listings feed we ingest. Adding a
// venue with a structured feed is a config change here, not new code.
type seedSource struct {
	Source  string
	Name    string
	Address string
	City    string
	State   string
	Lat     float64
	Lng     float64
	FeedURL string
}

var seedSources = []seedSource{
	{
		Source:  "crocodile",
		Name:    "The Crocodile",
		Address: "2505 1st Ave",
		City:    "Seattle",
		State:   "WA",
		Lat:     47.6146,
		Lng:     -122.3460,
		FeedURL: "https://www.thecrocodile.com/events.json",
	},
	{
		Source:  "neumos",
		Name:    "Neumos",
		Address: "925 E Pike St",
		City:    "Seattle",
		State:   "WA",
		Lat:     47.6139,
		Lng:     -122.3194,
		FeedURL: "https://www.neumos.com/events.json",
	},
	{
		Source:  "tractor",
		Name:    "Tractor Tavern",
		Address: "5213 Ballard Ave NW",
		City:    "Seattle",
		State:   "WA",
		Lat:     47.6656,
		Lng:     -122.3832,
		FeedURL: "https://www.tractortavern.com/events.json",
	},
	{
		Source:  "showbox",
		Name:    "The Showbox",
		Address: "1426 1st Ave",
		City:    "Seattle",
		State:   "WA",
		Lat:     47.6084,
		Lng:     -122.3394,
		FeedURL: "https://www.showboxpresents.com/events.json",
	},
}

// bootstrap creates the schema if missing, seeds venue reference data, and
// registers one scraper per seeded source. Safe to run on every start.
func bootstrap(ctx context.Context, db *sql.DB, dataStore *store.Store) (*scraper.Registry, error) {
	if err := ensureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	registry := scraper.NewRegistry()
	for _, seed := range seedSources {
		venue := models.Venue{
			Name:    seed.Name,
			Address: seed.Address,
			City:    seed.City,
			State:   seed.State,
			Lat:     seed.Lat,
			Lng:     seed.Lng,
		}
		if err := dataStore.CreateVenue(ctx, &venue); err != nil {
			return nil, fmt.Errorf("seed venue %s: %w", seed.Name, err)
		}

		if err := registry.Register(scraper.NewFeedScraper(seed.Source, venue.ID, seed.FeedURL)); err != nil {
			return nil, fmt.Errorf("register scraper %s: %w", seed.Source, err)
		}
	}

	return registry, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS venues (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			address    TEXT NOT NULL DEFAULT '',
			city       TEXT NOT NULL DEFAULT '',
			state      TEXT NOT NULL DEFAULT '',
			lat        DOUBLE PRECISION NOT NULL DEFAULT 0,
			lng        DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (name, city)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id              BIGSERIAL PRIMARY KEY,
			source          TEXT NOT NULL,
			source_event_id TEXT NOT NULL,
			title           TEXT NOT NULL,
			start_time      TIMESTAMPTZ NOT NULL,
			end_time        TIMESTAMPTZ,
			venue_id        BIGINT NOT NULL REFERENCES venues(id),
			category        TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL DEFAULT 'scheduled',
			image_url       TEXT NOT NULL DEFAULT '',
			event_url       TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (source, source_event_id)
		)`,
		`CREATE TABLE IF NOT EXISTS enrichments (
			event_id             BIGINT PRIMARY KEY REFERENCES events(id) ON DELETE CASCADE,
			ticket_platform_id   TEXT NOT NULL DEFAULT '',
			ticket_platform_name TEXT NOT NULL DEFAULT '',
			ticket_url           TEXT NOT NULL DEFAULT '',
			preferred_title      BOOLEAN NOT NULL DEFAULT FALSE,
			sale_windows         JSONB,
			supporting_acts      TEXT[],
			category             TEXT NOT NULL DEFAULT '',
			category_confidence  DOUBLE PRECISION,
			music_platform_id    TEXT NOT NULL DEFAULT '',
			knowledge_graph_id   TEXT NOT NULL DEFAULT '',
			processed_at         TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS weather_cache (
			rounded_lat     DOUBLE PRECISION NOT NULL,
			rounded_lng     DOUBLE PRECISION NOT NULL,
			forecast_date   DATE NOT NULL,
			temp_high       DOUBLE PRECISION NOT NULL DEFAULT 0,
			temp_low        DOUBLE PRECISION NOT NULL DEFAULT 0,
			feels_like_high DOUBLE PRECISION NOT NULL DEFAULT 0,
			feels_like_low  DOUBLE PRECISION NOT NULL DEFAULT 0,
			precip_chance   INTEGER NOT NULL DEFAULT 0,
			humidity        INTEGER NOT NULL DEFAULT 0,
			uv_index        DOUBLE PRECISION NOT NULL DEFAULT 0,
			wind_speed      DOUBLE PRECISION NOT NULL DEFAULT 0,
			condition       TEXT NOT NULL DEFAULT '',
			fetched_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (rounded_lat, rounded_lng, forecast_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_start_time ON events (start_time)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
