package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adverant/nexus/docextract/internal/logging"
)

// TaggerClient calls a named-entity tagging service (a spaCy pipeline
// behind POST /ents).
type TaggerClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// Span is one tagged entity
type Span struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// TagResponse is the reply of POST /ents
type TagResponse struct {
	Model string `json:"model"`
	Ents  []Span `json:"ents"`
}

// NewTaggerClient creates a new tagger client
func NewTaggerClient(baseURL string, timeout time.Duration) *TaggerClient {
	return &TaggerClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		logger:     logging.NewLogger("TaggerClient"),
	}
}

// Tag returns the entity spans of text
func (c *TaggerClient) Tag(ctx context.Context, text string) (*TagResponse, error) {
	var out TagResponse
	req := map[string]string{"text": text}
	if _, err := postJSON(ctx, c.httpClient, "tagger", joinURL(c.baseURL, "/ents"), nil, req, &out); err != nil {
		return nil, err
	}

	c.logger.Debug("Tagging complete", "model", out.Model, "entities", len(out.Ents))
	return &out, nil
}

// HealthCheck verifies the tagger is up
func (c *TaggerClient) HealthCheck(ctx context.Context) error {
	if _, err := getJSON(ctx, c.httpClient, "tagger", joinURL(c.baseURL, "/health"), nil, nil); err != nil {
		return fmt.Errorf("tagger health check failed: %w", err)
	}
	return nil
}
