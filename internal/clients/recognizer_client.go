/**
 * Recognizer Client - classical OCR sidecars
 *
 * EasyOCR, PaddleOCR and Surya run as small Python HTTP services next to
 * docextract. They share one wire format:
 *
 *   POST /recognize {image, languages}          -> {detections: [...]}
 *   POST /detect    {image}                     -> {regions: [...]}
 *   POST /read      {image, regions, languages} -> {lines: [...]}
 *   GET  /health
 */

package clients

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/adverant/nexus/docextract/internal/logging"
)

// RecognizerClient handles communication with a recognition sidecar
type RecognizerClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// Detection is one recognized token with its polygon
type Detection struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Box        [][2]float64 `json:"box"`
}

// Region is a detected text region
type Region struct {
	Box        [][2]float64 `json:"box"`
	Confidence float64      `json:"confidence"`
}

// TextLine is a recognized line of a detected region
type TextLine struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Box        [][2]float64 `json:"box"`
}

type recognizeRequest struct {
	Image     string   `json:"image"`
	Languages []string `json:"languages,omitempty"`
	Regions   []Region `json:"regions,omitempty"`
}

// NewRecognizerClient creates a client for the sidecar named service
func NewRecognizerClient(service, baseURL string, timeout time.Duration) *RecognizerClient {
	return &RecognizerClient{
		service:    service,
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		logger:     logging.NewLogger(fmt.Sprintf("RecognizerClient[%s]", service)),
	}
}

// Recognize runs detection and recognition in one call
func (c *RecognizerClient) Recognize(ctx context.Context, image []byte, languages []string) ([]Detection, error) {
	var out struct {
		Detections []Detection `json:"detections"`
	}
	req := recognizeRequest{Image: base64.StdEncoding.EncodeToString(image), Languages: languages}
	if _, err := postJSON(ctx, c.httpClient, c.service, joinURL(c.baseURL, "/recognize"), nil, req, &out); err != nil {
		return nil, err
	}

	c.logger.Debug("Recognition complete", "detections", len(out.Detections))
	return out.Detections, nil
}

// Detect finds text regions without reading them
func (c *RecognizerClient) Detect(ctx context.Context, image []byte) ([]Region, error) {
	var out struct {
		Regions []Region `json:"regions"`
	}
	req := recognizeRequest{Image: base64.StdEncoding.EncodeToString(image)}
	if _, err := postJSON(ctx, c.httpClient, c.service, joinURL(c.baseURL, "/detect"), nil, req, &out); err != nil {
		return nil, err
	}
	return out.Regions, nil
}

// Read recognizes the text of previously detected regions
func (c *RecognizerClient) Read(ctx context.Context, image []byte, regions []Region, languages []string) ([]TextLine, error) {
	var out struct {
		Lines []TextLine `json:"lines"`
	}
	req := recognizeRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		Regions:   regions,
		Languages: languages,
	}
	if _, err := postJSON(ctx, c.httpClient, c.service, joinURL(c.baseURL, "/read"), nil, req, &out); err != nil {
		return nil, err
	}
	return out.Lines, nil
}

// HealthCheck verifies the sidecar is up
func (c *RecognizerClient) HealthCheck(ctx context.Context) error {
	if _, err := getJSON(ctx, c.httpClient, c.service, joinURL(c.baseURL, "/health"), nil, nil); err != nil {
		return fmt.Errorf("%s health check failed: %w", c.service, err)
	}
	return nil
}
