package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/docextract/internal/engines"
	"github.com/adverant/nexus/docextract/internal/ner"
)

var (
	nerEngine    string
	nerJSONInput bool
)

var nerCmd = &cobra.Command{
	Use:   "ner <file>",
	Short: "Extract named entities from a text or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runNER,
}

func init() {
	nerCmd.Flags().StringVar(&nerEngine, "engine", engines.NERTagger,
		fmt.Sprintf("NER engine: %s, %s or %s", engines.NEROpenAI, engines.NEROllama, engines.NERTagger))
	nerCmd.Flags().BoolVar(&nerJSONInput, "json", false, "treat the input as a JSON document")
	rootCmd.AddCommand(nerCmd)
}

func runNER(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	rt, err := loadApp("", nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	engine, err := rt.builder.NEREngine(nerEngine)
	if err != nil {
		return err
	}

	var result ner.Result
	if nerJSONInput {
		result = engine.ProcessJSONSchema(cmd.Context(), string(data))
	} else {
		result = engine.ProcessText(cmd.Context(), string(data))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.Err != nil {
		return result.Err
	}
	return nil
}
