/**
 * Enhanced pipeline - multi-engine OCR followed by cleaning and entities
 *
 * Stage 1 asks every engine and keeps the most confident text, stage 2
 * normalizes whitespace, stage 3 extracts entities from the cleaned text.
 */

package pipeline

import (
	"context"
	"encoding/json"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/processor"
)

// Result is the output of the enhanced pipeline for one image
type Result struct {
	RawText     string
	CleanedText string
	Entities    EntityMap
	Err         *apperrors.ProcessingError
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]string{"error": r.Err.Text()})
	}
	entities := r.Entities
	if entities == nil {
		entities = EntityMap{}
	}
	return json.Marshal(struct {
		RawText     string    `json:"raw_text"`
		CleanedText string    `json:"cleaned_text"`
		Entities    EntityMap `json:"entities"`
	}{r.RawText, r.CleanedText, entities})
}

// Pipeline runs fusion, cleaning and entity extraction
type Pipeline struct {
	engines   []processor.Instance
	extractor *EntityExtractor
	logger    *logging.Logger
}

// NewPipeline creates a pipeline over engines
func NewPipeline(engines []processor.Instance, extractor *EntityExtractor) *Pipeline {
	if extractor == nil {
		extractor = NewEntityExtractor(nil)
	}
	return &Pipeline{
		engines:   engines,
		extractor: extractor,
		logger:    logging.NewLogger("Pipeline"),
	}
}

// ProcessImage runs the three stages on one image
func (p *Pipeline) ProcessImage(ctx context.Context, path string) Result {
	raw := Combine(ctx, path, p.engines)
	if raw == "" {
		p.logger.Warn("No engine produced text", "path", path)
		return Result{Err: &apperrors.ProcessingError{
			Code:    apperrors.ErrorBackendFailure,
			Message: "No text could be extracted from the image",
			Path:    path,
		}}
	}

	cleaned := CleanText(raw)
	entities := p.extractor.Extract(ctx, cleaned)

	p.logger.Info("Pipeline complete", "path", path, "textLength", len(cleaned), "categories", len(entities))
	return Result{RawText: raw, CleanedText: cleaned, Entities: entities}
}
