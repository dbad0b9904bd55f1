package scraper

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gigscout/internal/logging"
)

const (
	defaultSourceTimeout = 30 * time.Second
	defaultParallelism   = 4
)

// SourceResult is the outcome of scraping one source: either its events or
// the error that stopped it, never both.
type SourceResult struct {
	Source string     `json:"source"`
	Count  int        `json:"count"`
	Events []RawEvent `json:"-"`
	Err    error      `json:"-"`
}

// ErrString exposes the error for JSON summaries; nil errors render as "".
func (r SourceResult) ErrString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunSummary aggregates one full orchestrator run.
type RunSummary struct {
	Total   int            `json:"total"`
	Sources []SourceResult `json:"sources"`
}

// RawEvents flattens every successful source's events into one batch.
func (s RunSummary) RawEvents() []RawEvent {
	var raws []RawEvent
	for _, src := range s.Sources {
		raws = append(raws, src.Events...)
	}
	return raws
}

// Orchestrator fans out over every registered scraper, isolating per-source
// failures so one broken or slow source never spoils a run.
type Orchestrator struct {
	registry *Registry
	logger   *logging.Logger
	timeout  time.Duration
	parallel int
}

// NewOrchestrator wires an Orchestrator over a registry.
func NewOrchestrator(registry *Registry, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		logger:   logger,
		timeout:  defaultSourceTimeout,
		parallel: defaultParallelism,
	}
}

// RunAll scrapes every registered source concurrently and collects one
// result per source. A source error or timeout lands in that source's
// result; it never cancels siblings and never surfaces as RunAll's error.
func (o *Orchestrator) RunAll(ctx context.Context) RunSummary {
	sources := o.registry.Sources()
	results := make([]SourceResult, len(sources))

	g := &errgroup.Group{}
	g.SetLimit(o.parallel)

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			results[i] = o.runSource(ctx, source)
			return nil
		})
	}
	// The group never carries errors; results hold them per source.
	_ = g.Wait()

	summary := RunSummary{Sources: results}
	for _, r := range results {
		summary.Total += r.Count
		if r.Err != nil {
			o.logger.WithFields(map[string]interface{}{
				"source": r.Source,
			}).Warn().Err(r.Err).Msg("source scrape failed")
		}
	}
	return summary
}

// RunOne scrapes a single source, used for targeted re-runs and debugging.
// Unlike a source fault, an unknown source id is an orchestrator-level error.
func (o *Orchestrator) RunOne(ctx context.Context, source string) (SourceResult, error) {
	if _, err := o.registry.Get(source); err != nil {
		return SourceResult{}, err
	}
	return o.runSource(ctx, source), nil
}

func (o *Orchestrator) runSource(ctx context.Context, source string) (result SourceResult) {
	result.Source = source

	s, err := o.registry.Get(source)
	if err != nil {
		result.Err = err
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// A panicking scraper is recorded like any other source fault.
	defer func() {
		if rec := recover(); rec != nil {
			result.Events = nil
			result.Count = 0
			result.Err = fmt.Errorf("scraper panic: %v", rec)
		}
	}()

	events, err := s.Scrape(ctx)
	if err != nil {
		result.Err = fmt.Errorf("scrape %s: %w", source, err)
		return result
	}

	result.Events = events
	result.Count = len(events)
	return result
}
