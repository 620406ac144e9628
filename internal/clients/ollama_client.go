/**
 * Ollama Client - local vision and text LLMs
 *
 * Talks to the /api/generate endpoint with streaming disabled. Images travel
 * base64 encoded in the "images" field.
 */

package clients

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adverant/nexus/docextract/internal/logging"
)

// OllamaClient handles communication with an Ollama server
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	System  string           `json:"system,omitempty"`
	Images  []string         `json:"images,omitempty"` // base64 encoded
	Stream  bool             `json:"stream"`
	Format  string           `json:"format,omitempty"`
	Options *GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions are sampling options
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateResponse is the non-streaming reply of /api/generate
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`

	// Raw is the undecoded response body
	Raw json.RawMessage `json:"-"`
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		logger:     logging.NewLogger("OllamaClient"),
	}
}

// Generate runs one non-streaming completion
func (c *OllamaClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	req.Stream = false

	c.logger.Debug("Requesting generation from Ollama",
		"model", req.Model,
		"images", len(req.Images),
		"promptLength", len(req.Prompt))

	var out GenerateResponse
	raw, err := postJSON(ctx, c.httpClient, "ollama", joinURL(c.baseURL, "/api/generate"), nil, req, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw

	c.logger.Debug("Generation complete", "model", out.Model, "responseLength", len(out.Response))
	return &out, nil
}

// GenerateFromImage is a convenience method that handles base64 encoding
func (c *OllamaClient) GenerateFromImage(ctx context.Context, model, prompt string, image []byte, opts *GenerateOptions) (*GenerateResponse, error) {
	return c.Generate(ctx, &GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Images:  []string{base64.StdEncoding.EncodeToString(image)},
		Options: opts,
	})
}

// HealthCheck verifies the server answers and lists models
func (c *OllamaClient) HealthCheck(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if _, err := getJSON(ctx, c.httpClient, "ollama", joinURL(c.baseURL, "/api/tags"), nil, &tags); err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	return nil
}
