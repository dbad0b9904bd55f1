package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gigscout/internal/enrich"
)

// CategorizerClient implements enrich.Categorizer against an
// OpenAI-compatible chat completions endpoint. The model is asked for a
// single JSON object with a category label and confidence.
type CategorizerClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewCategorizerClient creates a categorization client.
func NewCategorizerClient(baseURL, apiKey, model string) *CategorizerClient {
	return &CategorizerClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type categoryAnswer struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Categorize asks the model to classify an event title.
func (c *CategorizerClient) Categorize(ctx context.Context, title string) (*enrich.Category, error) {
	prompt := fmt.Sprintf(
		`Classify this live event title into one category (concert, comedy, theater, sports, festival, community, other) and reply with JSON {"category": "...", "confidence": 0-1}. Title: %q`,
		title,
	)

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("categorizer api error: %s - %s", resp.Status, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("categorizer returned no choices")
	}

	var answer categoryAnswer
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &answer); err != nil {
		return nil, fmt.Errorf("decode category answer: %w", err)
	}
	if answer.Category == "" {
		return nil, nil
	}

	return &enrich.Category{
		Label:      answer.Category,
		Confidence: answer.Confidence,
	}, nil
}
