package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/docextract/internal/config"
	"github.com/adverant/nexus/docextract/internal/engines"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/ocr"
	"github.com/adverant/nexus/docextract/internal/storage"
)

var (
	logLevel string
	noCache  bool
)

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract text and entities from PDFs and images with several OCR engines",
	Long: `docextract runs classical OCR engines and vision LLMs side by side over
images and PDFs. PDFs with a text layer are read directly; scanned PDFs are
rasterized and recognized page by page.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "do not use the Redis result cache")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app holds what every command needs: configuration, storage and an
// engine builder.
type app struct {
	cfg     *config.Config
	storage *storage.StorageManager
	builder *engines.Builder
	logger  *logging.Logger
}

// loadApp loads configuration, lets override adjust it before
// validation, and wires storage and the engine builder.
func loadApp(outputDir string, override func(*config.Config)) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger := logging.NewLogger("docextract")

	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	redisURL := cfg.RedisURL
	if noCache {
		redisURL = ""
	}

	sm, err := storage.NewStorageManager(storage.StorageConfig{
		OutputDir: outputDir,
		RedisURL:  redisURL,
		CacheTTL:  cfg.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var cache ocr.ResultCache
	if c := sm.Cache(); c != nil {
		cache = c
	}
	builder, err := engines.NewBuilder(cfg, cache, sm.CacheTTL())
	if err != nil {
		sm.Close()
		return nil, err
	}

	return &app{cfg: cfg, storage: sm, builder: builder, logger: logger}, nil
}

func (r *app) Close() {
	if err := r.storage.Close(); err != nil {
		r.logger.Warn("Failed to close storage", "error", err)
	}
}

// checkHealth probes the back-ends of the built engines
func (r *app) checkHealth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	r.builder.CheckHealth(ctx)
}
