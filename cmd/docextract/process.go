package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/docextract/internal/config"
	"github.com/adverant/nexus/docextract/internal/metrics"
	"github.com/adverant/nexus/docextract/internal/processor"
)

var (
	processEngines   []string
	processLanguages []string
	processRecursive bool
)

var processCmd = &cobra.Command{
	Use:   "process <input_path> <output_dir>",
	Short: "Run the configured engines on a file or directory",
	Long: `Run every selected engine on one file, or on every PDF and image in a
directory, and save one JSON result document per input file.

Engines are given as name or name:lang1+lang2, e.g. --engines tesseract,easyocr:en+de`,
	Args: cobra.ExactArgs(2),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringSliceVar(&processEngines, "engines", nil, "engines to run (default from ENGINES)")
	processCmd.Flags().StringSliceVar(&processLanguages, "languages", nil, "languages as ISO 639-1 codes (default from LANGUAGES)")
	processCmd.Flags().BoolVar(&processRecursive, "recursive", false, "process directories recursively")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	inputPath, outputDir := args[0], args[1]

	rt, err := loadApp(outputDir, func(cfg *config.Config) {
		if len(processEngines) > 0 {
			cfg.Engines = processEngines
		}
		if len(processLanguages) > 0 {
			cfg.Languages = processLanguages
		}
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instances, err := rt.builder.Instances()
	if err != nil {
		return err
	}
	rt.checkHealth(ctx)

	proc, err := processor.NewDocumentProcessor(&processor.ProcessorConfig{
		Engines: instances,
		Writer:  rt.storage.Writer(),
		Metrics: metrics.NewMetrics(),
	})
	if err != nil {
		return err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("input path %s does not exist", inputPath)
	}

	if info.IsDir() {
		rt.logger.Info("Processing directory", "path", inputPath, "recursive", processRecursive)
		result := proc.ProcessDirectory(ctx, inputPath, processRecursive)
		if result.Err != nil {
			return result.Err
		}
		rt.logger.Info("Results saved", "outputDir", rt.storage.Writer().Root(), "files", len(result.Files))
		return nil
	}

	return processSingleFile(ctx, rt, proc, inputPath)
}

func processSingleFile(ctx context.Context, rt *app, proc *processor.DocumentProcessor, path string) error {
	rt.logger.Info("Processing single file", "path", path)
	result := proc.ProcessFile(ctx, path)

	out, err := rt.storage.Writer().Write(filepath.Base(path), result)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	rt.logger.Info("Results saved", "output", out)

	if status := result.Status(); status != nil {
		rt.logger.Warn("Processing finished with errors", "code", string(status.Code), "error", status.Text())
	}
	return nil
}
