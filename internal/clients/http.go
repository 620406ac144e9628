package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// StatusError is returned when a back-end answers with a non-2xx status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned error status %d: %s", e.Service, e.StatusCode, e.Body)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second // vision calls are slow
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends payload as JSON and returns the raw response body.
// out, when non-nil, receives the decoded body.
func postJSON(ctx context.Context, hc *http.Client, service, endpoint string, headers map[string]string, payload interface{}, out interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Source", "docextract")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	return do(hc, httpReq, service, out)
}

// getJSON performs a GET request and decodes the body into out when non-nil.
func getJSON(ctx context.Context, hc *http.Client, service, endpoint string, headers map[string]string, out interface{}) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	return do(hc, httpReq, service, out)
}

func do(hc *http.Client, httpReq *http.Request, service string, out interface{}) ([]byte, error) {
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &StatusError{Service: service, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return body, fmt.Errorf("failed to parse %s response: %w", service, err)
		}
	}
	return body, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
