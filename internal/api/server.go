/**
 * HTTP API - single-file processing over multipart upload
 *
 * Routes:
 *   POST /process  upload one file, optionally choosing engines
 *   GET  /health   liveness
 *   GET  /metrics  Prometheus exposition
 */

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/metrics"
	"github.com/adverant/nexus/docextract/internal/processor"
)

const defaultMaxUploadSize = 100 * 1024 * 1024

// Config holds server configuration
type Config struct {
	Engines        []processor.Instance
	Metrics        *metrics.Metrics
	TempDir        string
	MaxUploadSize  int64
	RequestTimeout time.Duration
}

// Server serves the processing API
type Server struct {
	engines        []processor.Instance
	metrics        *metrics.Metrics
	tempDir        string
	maxUploadSize  int64
	requestTimeout time.Duration
	logger         *logging.Logger
}

// NewServer creates a server over a pre-built engine set
func NewServer(cfg Config) (*Server, error) {
	if len(cfg.Engines) == 0 {
		return nil, apperrors.NewConfigInvalidError("at least one engine is required", nil)
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadSize
	}
	return &Server{
		engines:        cfg.Engines,
		metrics:        cfg.Metrics,
		tempDir:        cfg.TempDir,
		maxUploadSize:  maxUpload,
		requestTimeout: cfg.RequestTimeout,
		logger:         logging.NewLogger("APIServer"),
	}, nil
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if s.requestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Post("/process", s.handleProcess)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", "error", err)
		return srv.Close()
	}
	s.logger.Info("Server stopped")
	return nil
}
