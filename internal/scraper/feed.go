package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gigscout/internal/models"
)

// FeedScraper implements Scraper for venues that expose a structured JSON
// listings feed. Venues with such a feed need only registration config, not
// a bespoke implementation.
type FeedScraper struct {
	source     string
	venueID    int64
	feedURL    string
	httpClient *http.Client
}

// NewFeedScraper creates a scraper for one venue's JSON feed.
func NewFeedScraper(source string, venueID int64, feedURL string) *FeedScraper {
	return &FeedScraper{
		source:  source,
		venueID: venueID,
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Feed response structures
type feedResponse struct {
	Events []feedEvent `json:"events"`
}

type feedEvent struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Status   string     `json:"status,omitempty"`
	URL      string     `json:"url,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
}

// Source returns the stable source id this feed was registered under.
func (f *FeedScraper) Source() string {
	return f.source
}

// Scrape fetches and converts the venue's current feed.
func (f *FeedScraper) Scrape(ctx context.Context) ([]RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed error: %s - %s", resp.Status, string(body))
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	raws := make([]RawEvent, 0, len(feed.Events))
	for _, fe := range feed.Events {
		raws = append(raws, f.convertEvent(fe))
	}

	return raws, nil
}

func (f *FeedScraper) convertEvent(fe feedEvent) RawEvent {
	status := models.EventStatus(fe.Status)
	if !status.Valid() {
		status = models.StatusScheduled
	}

	return RawEvent{
		Source:        f.source,
		SourceEventID: fe.ID,
		Title:         fe.Title,
		StartTime:     fe.StartsAt,
		EndTime:       fe.EndsAt,
		VenueID:       f.venueID,
		Status:        status,
		EventURL:      fe.URL,
		ImageURL:      fe.ImageURL,
	}
}
