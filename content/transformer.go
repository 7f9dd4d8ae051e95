package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/minbarhq/minbar-api/models"
)

// Transformer converts a document body into card-shaped outline records.
// Internals are opaque; only the shape of the result matters here.
type Transformer interface {
	TextToCards(ctx context.Context, bodyText string) ([]models.CardDetails, error)
}

// TransformerClient talks to the external text-to-cards service over HTTP.
type TransformerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTransformerClient creates a client for the transformer at baseURL.
func NewTransformerClient(baseURL string) *TransformerClient {
	return &TransformerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			// summarization is slow, give it room
			Timeout: 90 * time.Second,
		},
	}
}

// TextToCards submits the body text and returns the proposed outline. The
// returned cards carry no ids or ordinals; the caller assigns ordinals
// 1..n on insert.
func (c *TransformerClient) TextToCards(ctx context.Context, bodyText string) ([]models.CardDetails, error) {
	reqBody, err := json.Marshal(map[string]string{"text": bodyText})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/cards", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create transformer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transformer call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transformer call failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Cards []models.CardDetails `json:"cards"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode transformer response: %w", err)
	}

	for i := range payload.Cards {
		if payload.Cards[i].TimeEstimateSeconds <= 0 {
			payload.Cards[i].TimeEstimateSeconds = models.DefaultTimeEstimateSeconds
		}
	}
	return payload.Cards, nil
}
