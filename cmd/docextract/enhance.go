package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/docextract/internal/config"
	"github.com/adverant/nexus/docextract/internal/pipeline"
)

var enhanceEngines []string

var enhanceCmd = &cobra.Command{
	Use:   "enhance <image>",
	Short: "Fuse engine outputs for one image, clean the text and extract entities",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnhance,
}

func init() {
	enhanceCmd.Flags().StringSliceVar(&enhanceEngines, "engines", []string{config.EngineEasyOCR, config.EnginePaddleOCR, config.EngineTesseract}, "engines that vote on the text")
	rootCmd.AddCommand(enhanceCmd)
}

func runEnhance(cmd *cobra.Command, args []string) error {
	rt, err := loadApp("", func(cfg *config.Config) {
		cfg.Engines = enhanceEngines
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	instances, err := rt.builder.Instances()
	if err != nil {
		return err
	}
	rt.checkHealth(cmd.Context())

	p := pipeline.NewPipeline(instances, rt.builder.EntityExtractor())
	result := p.ProcessImage(cmd.Context(), args[0])

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
