package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const wikidataBaseURL = "https://www.wikidata.org/w/api.php"

// WikidataClient implements enrich.KnowledgeGraph using the Wikidata entity
// search API.
type WikidataClient struct {
	httpClient *http.Client
}

// NewWikidataClient creates a Wikidata lookup client.
func NewWikidataClient() *WikidataClient {
	return &WikidataClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type wikiSearchResponse struct {
	Search []wikiEntity `json:"search"`
}

type wikiEntity struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Lookup resolves a title to a Wikidata entity id. An empty id with nil
// error means no entity matched.
func (c *WikidataClient) Lookup(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("search", title)
	params.Set("language", "en")
	params.Set("limit", "1")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, "GET", wikidataBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("wikidata api error: %s - %s", resp.Status, string(body))
	}

	var result wikiSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(result.Search) == 0 {
		return "", nil
	}
	return result.Search[0].ID, nil
}
