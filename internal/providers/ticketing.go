package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"gigscout/internal/enrich"
	"gigscout/internal/models"
)

const ticketmasterBaseURL = "https://app.ticketmaster.com/discovery/v2"

// TicketmasterClient implements enrich.TicketMatcher against the
// Ticketmaster Discovery API.
type TicketmasterClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewTicketmasterClient creates a new Discovery API client.
func NewTicketmasterClient(apiKey string) *TicketmasterClient {
	return &TicketmasterClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Discovery API response structures
type tmSearchResponse struct {
	Embedded *tmEmbedded `json:"_embedded,omitempty"`
}

type tmEmbedded struct {
	Events []tmEvent `json:"events"`
}

type tmEvent struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Sales    tmSales `json:"sales"`
	Embedded struct {
		Attractions []tmAttraction `json:"attractions"`
	} `json:"_embedded"`
}

type tmSales struct {
	Public   tmSaleWindow   `json:"public"`
	Presales []tmSaleWindow `json:"presales"`
}

type tmSaleWindow struct {
	Name     string    `json:"name,omitempty"`
	StartUTC time.Time `json:"startDateTime"`
	EndUTC   time.Time `json:"endDateTime"`
}

type tmAttraction struct {
	Name string `json:"name"`
}

// Match searches the platform by event title and picks the first hit.
// Returning (nil, nil) means the platform has no listing for the event.
func (c *TicketmasterClient) Match(ctx context.Context, event *models.Event) (*enrich.TicketMatch, error) {
	params := url.Values{}
	params.Set("keyword", event.Title)
	params.Set("size", "1")
	params.Set("apikey", c.apiKey)

	apiURL := ticketmasterBaseURL + "/events.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ticketmaster api error: %s - %s", resp.Status, string(body))
	}

	var result tmSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.Embedded == nil || len(result.Embedded.Events) == 0 {
		return nil, nil
	}

	return c.convertMatch(result.Embedded.Events[0], event.Title), nil
}

func (c *TicketmasterClient) convertMatch(tm tmEvent, scrapedTitle string) *enrich.TicketMatch {
	match := &enrich.TicketMatch{
		PlatformID:   tm.ID,
		PlatformName: "ticketmaster",
		TicketURL:    tm.URL,
		// The platform title is preferred when the scrape produced a
		// noisier variant of the same name.
		PreferredTitle: !strings.EqualFold(strings.TrimSpace(tm.Name), strings.TrimSpace(scrapedTitle)),
	}

	var windows []models.SaleWindow
	for _, p := range tm.Sales.Presales {
		if p.StartUTC.IsZero() || p.EndUTC.IsZero() {
			continue
		}
		name := p.Name
		if name == "" {
			name = "Presale"
		}
		windows = append(windows, models.SaleWindow{Name: name, Start: p.StartUTC, End: p.EndUTC})
	}
	if !tm.Sales.Public.StartUTC.IsZero() && !tm.Sales.Public.EndUTC.IsZero() {
		windows = append(windows, models.SaleWindow{
			Name:  "General On Sale",
			Start: tm.Sales.Public.StartUTC,
			End:   tm.Sales.Public.EndUTC,
		})
	}
	if len(windows) > 0 {
		sort.Slice(windows, func(i, j int) bool {
			return windows[i].Start.Before(windows[j].Start)
		})
		match.SaleWindows = &models.SaleWindows{
			Version: models.SaleWindowsVersion,
			Windows: windows,
		}
	}

	// First attraction is the headliner; the rest support.
	for i, a := range tm.Embedded.Attractions {
		if i == 0 || a.Name == "" {
			continue
		}
		match.SupportingActs = append(match.SupportingActs, a.Name)
	}

	return match
}
