/**
 * OpenAI Client - hosted chat completions
 *
 * Works against any OpenAI-compatible /chat/completions endpoint. Images are
 * sent inline as data URLs.
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

// OpenAIClient handles communication with an OpenAI-compatible API
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// ChatMessage represents a chat message
type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// ChatRequest represents the API request structure
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents the API response structure
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`

	// Raw is the undecoded response body
	Raw json.RawMessage `json:"-"`
}

// ChatChoice represents a single completion choice
type ChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Content returns the text of the first choice.
func (r *ChatResponse) Content() (string, error) {
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return r.Choices[0].Message.Content, nil
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
		logger:     logging.NewLogger("OpenAIClient"),
	}
}

// ChatCompletion sends a chat completion request
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	c.logger.Debug("Requesting chat completion",
		"model", req.Model,
		"messages", len(req.Messages))

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var out ChatResponse
	raw, err := postJSON(ctx, c.httpClient, "openai", joinURL(c.baseURL, "/chat/completions"), headers, req, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw

	c.logger.Debug("Chat completion complete",
		"model", out.Model,
		"totalTokens", out.Usage.TotalTokens)

	return &out, nil
}

// ImagePart builds a data URL content part from image bytes
func ImagePart(image []byte, mimeType string) ContentPart {
	url := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

// TextPart builds a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}
