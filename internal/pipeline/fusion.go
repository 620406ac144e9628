package pipeline

import (
	"context"
	"fmt"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/ocr"
	"github.com/adverant/nexus/docextract/internal/processor"
)

// DefaultConfidence is assumed for engines that report no confidence.
const DefaultConfidence = 0.5

// Candidate is one engine's contribution to a vote
type Candidate struct {
	EngineID   string
	Text       string
	Confidence float64
}

// Vote runs every engine on the image and returns the successful candidates
// in engine order. Failed engines are logged and left out.
func Vote(ctx context.Context, path string, engines []processor.Instance) []Candidate {
	logger := logging.NewLogger("Fusion")

	candidates := make([]Candidate, 0, len(engines))
	for _, inst := range engines {
		res := safeProcessImage(ctx, inst, path)
		if !res.OK() {
			logger.Error("Engine failed during fusion", "engine", inst.ID, "error", res.Err.Text())
			continue
		}

		conf, ok := res.Confidence.Value()
		if !ok {
			conf = DefaultConfidence
		}
		logger.Info("Engine confidence", "engine", inst.ID, "confidence", conf)
		candidates = append(candidates, Candidate{EngineID: inst.ID, Text: res.Text, Confidence: conf})
	}
	return candidates
}

// Best returns the candidate with the highest confidence; the earliest one
// wins ties. ok is false when there are no candidates.
func Best(candidates []Candidate) (best Candidate, ok bool) {
	for i, c := range candidates {
		if i == 0 || c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, len(candidates) > 0
}

// Combine returns the text of the most confident engine, or "" when no
// engine succeeded. Confidences are compared as reported, without rescaling.
func Combine(ctx context.Context, path string, engines []processor.Instance) string {
	best, ok := Best(Vote(ctx, path, engines))
	if !ok {
		return ""
	}
	return best.Text
}

func safeProcessImage(ctx context.Context, inst processor.Instance, path string) (res ocr.RecognitionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ocr.Failure(inst.ID, apperrors.NewBackendFailureError(inst.ID, path, fmt.Errorf("panic: %v", r)))
		}
	}()
	return inst.Engine.ProcessImage(ctx, path)
}
