package scraper

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSource signals a lookup for a source id that was never registered.
var ErrUnknownSource = errors.New("unknown source")

// Registry holds every registered venue scraper keyed by source id.
// Registration happens once at startup; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]Scraper
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[string]Scraper)}
}

// Register adds a scraper under its source id. Registering the same source
// twice is a wiring mistake and returns an error rather than overwriting.
func (r *Registry) Register(s Scraper) error {
	source := s.Source()
	if source == "" {
		return errors.New("scraper has empty source id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scrapers[source]; exists {
		return fmt.Errorf("source %q already registered", source)
	}
	r.scrapers[source] = s
	return nil
}

// Get returns the scraper for a source id.
func (r *Registry) Get(source string) (Scraper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scrapers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return s, nil
}

// Sources lists every registered source id in stable order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]string, 0, len(r.scrapers))
	for source := range r.scrapers {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
