package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/docextract/internal/api"
	"github.com/adverant/nexus/docextract/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve single-file processing over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := loadApp("", nil)
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

	server, err := api.NewServer(api.Config{
		Engines:        instances,
		Metrics:        metrics.NewMetrics(),
		TempDir:        rt.cfg.TempDir,
		MaxUploadSize:  rt.cfg.MaxFileSize,
		RequestTimeout: rt.cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	rt.logger.Info("docextract API starting",
		"addr", rt.cfg.Address(),
		"engines", len(instances))
	return server.ListenAndServe(ctx, rt.cfg.Address())
}
