package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/models"
)

// minQueryLength is the shortest query forwarded verbatim. Anything shorter
// falls back to the default topic so the picker always has results.
const minQueryLength = 3

// defaultTopic backs very short or empty queries.
const defaultTopic = "patience"

// SearchProvider returns ranked reference snippets for a category and query.
type SearchProvider interface {
	Search(ctx context.Context, category, query string) ([]models.Snippet, error)
}

// ProviderClient talks to the external content search provider over HTTP.
type ProviderClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProviderClient creates a client for the provider at baseURL.
func NewProviderClient(baseURL string) *ProviderClient {
	return &ProviderClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search returns snippets for the category and query. Empty or very short
// queries are replaced by the default topic rather than erroring.
func (c *ProviderClient) Search(ctx context.Context, category, query string) ([]models.Snippet, error) {
	if len([]rune(query)) < minQueryLength {
		zap.S().Debugw("short snippet query, using default topic", "query", query)
		query = defaultTopic
	}

	u := fmt.Sprintf("%s/v1/snippets?category=%s&q=%s",
		c.baseURL, url.QueryEscape(category), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snippet request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snippet search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snippet search failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Snippets []models.Snippet `json:"snippets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode snippet response: %w", err)
	}
	if payload.Snippets == nil {
		payload.Snippets = []models.Snippet{}
	}
	return payload.Snippets, nil
}
