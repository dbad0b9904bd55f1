package main

import (
	"net/http"

	"gigscout/internal/enrich"
	"gigscout/internal/httpapi"
	"gigscout/internal/ingest"
	"gigscout/internal/logging"
	"gigscout/internal/providers"
	"gigscout/internal/scraper"
	"gigscout/internal/store"
	"gigscout/internal/weather"
)

type services struct {
	orchestrator *scraper.Orchestrator
	ingest       ingest.Service
	enrich       enrich.Service
	weather      weather.Service
}

func newServices(cfg Config, registry *scraper.Registry, dataStore *store.Store, logger *logging.Logger) services {
	return services{
		orchestrator: scraper.NewOrchestrator(registry, logger),
		ingest:       ingest.New(dataStore, logger),
		enrich: enrich.New(
			dataStore,
			newTicketMatcher(cfg, logger),
			newCategorizer(cfg, logger),
			providers.NewWikidataClient(),
			newMusicPlatform(cfg, logger),
			logger,
		),
		weather: weather.New(dataStore, providers.NewOpenMeteoClient(), logger),
	}
}

func newHTTPHandler(cfg Config, svcs services, dataStore *store.Store, logger *logging.Logger) http.Handler {
	server := httpapi.New(
		svcs.orchestrator,
		svcs.ingest,
		svcs.enrich,
		svcs.weather,
		dataStore,
		dataStore,
		cfg.SchedulerToken,
		logger,
	)
	return server.Routes()
}

// Providers without credentials are left nil; the enrichment batch treats
// them as not applicable instead of failing every event.

func newTicketMatcher(cfg Config, logger *logging.Logger) enrich.TicketMatcher {
	if cfg.TicketmasterAPIKey == "" {
		logger.Warn("Ticketmaster API key not provided, ticket matching disabled")
		return nil
	}
	return providers.NewTicketmasterClient(cfg.TicketmasterAPIKey)
}

func newCategorizer(cfg Config, logger *logging.Logger) enrich.Categorizer {
	if cfg.CategorizerURL == "" || cfg.CategorizerAPIKey == "" {
		logger.Warn("categorizer credentials not provided, categorization disabled")
		return nil
	}
	return providers.NewCategorizerClient(cfg.CategorizerURL, cfg.CategorizerAPIKey, cfg.CategorizerModel)
}

func newMusicPlatform(cfg Config, logger *logging.Logger) enrich.MusicPlatform {
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		logger.Warn("Spotify credentials not provided, artist matching disabled")
		return nil
	}
	return providers.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
}
