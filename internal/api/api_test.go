package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/docextract/internal/metrics"
	"github.com/adverant/nexus/docextract/internal/ocr"
	"github.com/adverant/nexus/docextract/internal/processor"
)

type echoEngine struct {
	name string
	seen []string
}

func (e *echoEngine) Name() string { return e.name }

func (e *echoEngine) ProcessImage(ctx context.Context, path string) ocr.RecognitionResult {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	e.seen = append(e.seen, path)
	return ocr.RecognitionResult{Engine: e.name, Text: string(data), Confidence: ocr.Scalar(0.9)}
}

func (e *echoEngine) ProcessPDF(ctx context.Context, path string) ocr.DocumentResult {
	return ocr.DocumentResult{Engine: e.name}
}

func newTestServer(t *testing.T) (*Server, *echoEngine, *echoEngine) {
	t.Helper()
	tess := &echoEngine{name: "tesseract"}
	easy := &echoEngine{name: "easyocr"}
	srv, err := NewServer(Config{
		Engines: []processor.Instance{
			{ID: "tesseract", Engine: tess},
			{ID: "easyocr", Engine: easy},
		},
		Metrics: metrics.NewMetrics(),
		TempDir: t.TempDir(),
	})
	require.NoError(t, err)
	return srv, tess, easy
}

func upload(t *testing.T, filename, content string, engines ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	for _, e := range engines {
		require.NoError(t, mw.WriteField("engines", e))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestProcessUpload(t *testing.T) {
	srv, tess, easy := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, upload(t, "scan.png", "hello"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Filename string                            `json:"filename"`
		Results  map[string]map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scan.png", resp.Filename)
	require.Contains(t, resp.Results, "tesseract")
	require.Contains(t, resp.Results, "easyocr")
	assert.Equal(t, "hello", resp.Results["tesseract"]["text"])

	require.Len(t, tess.seen, 1)
	require.Len(t, easy.seen, 1)
	_, err := os.Stat(tess.seen[0])
	assert.True(t, os.IsNotExist(err), "upload is removed after the request")
}

func TestProcessEngineSelection(t *testing.T) {
	srv, tess, easy := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, upload(t, "scan.jpg", "x", "easyocr"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, tess.seen)
	assert.Len(t, easy.seen, 1)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, upload(t, "scan.jpg", "x", "surya"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	srv, tess, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, upload(t, "notes.txt", "x"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UNSUPPORTED_TYPE", body["error_code"])
	assert.NotEmpty(t, body["error"])
	assert.Contains(t, body["detail"], ".pdf")
	assert.Empty(t, tess.seen)
}

func TestProcessRequiresFile(t *testing.T) {
	srv, _, _ := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("engines", "tesseract"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docextract_http_requests_total")
}

func TestNewServerRequiresEngines(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}
