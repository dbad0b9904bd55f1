package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gigscout/internal/logging"
)

// startScheduler launches one ticker goroutine per enabled job. Each tick
// runs the job to completion before the next tick is considered; job types
// share no state, so they never block each other. A deployment driven by an
// external scheduler leaves every interval at zero and uses the HTTP
// triggers instead.
func startScheduler(ctx context.Context, cfg Config, svcs services, logger *logging.Logger) {
	if cfg.ScrapeInterval > 0 {
		go runEvery(ctx, cfg.ScrapeInterval, "scrape_all", logger, func(ctx context.Context) error {
			summary := svcs.orchestrator.RunAll(ctx)
			upsert, err := svcs.ingest.Upsert(ctx, summary.RawEvents())
			logger.WithFields(map[string]interface{}{
				"total":   summary.Total,
				"created": upsert.Created,
				"updated": upsert.Updated,
				"errors":  upsert.Errors,
			}).Info().Msg("scheduled scrape finished")
			return err
		})
	}

	if cfg.EnrichInterval > 0 {
		go runEvery(ctx, cfg.EnrichInterval, "enrich", logger, func(ctx context.Context) error {
			// Scheduled runs never use force mode; that reset stays an
			// explicit operator action on the HTTP surface.
			_, err := svcs.enrich.Run(ctx, cfg.EnrichLimit, false)
			return err
		})
	}

	if cfg.WeatherInterval > 0 {
		go runEvery(ctx, cfg.WeatherInterval, "weather_prewarm", logger, func(ctx context.Context) error {
			_, err := svcs.weather.Prewarm(ctx)
			return err
		})
	}
}

func runEvery(ctx context.Context, interval time.Duration, job string, logger *logging.Logger, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runID := uuid.NewString()
			start := time.Now()
			err := fn(ctx)
			logger.Job(runID, job, time.Since(start), err)
		}
	}
}
