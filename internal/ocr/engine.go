package ocr

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
)

// Engine is a text-extraction back-end.
//
// Both operations are total: every failure comes back as an error-shaped
// result value, never as a panic or a Go error.
type Engine interface {
	// Name is the engine family, e.g. "tesseract". It is written into results.
	Name() string
	ProcessImage(ctx context.Context, path string) RecognitionResult
	ProcessPDF(ctx context.Context, path string) DocumentResult
}

// readInput loads an input file, mapping a missing file to NOT_FOUND.
func readInput(engine, path string) ([]byte, *apperrors.ProcessingError) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewBackendFailureError(engine, path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewBackendFailureError(engine, path, fmt.Errorf("%s is a directory", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewBackendFailureError(engine, path, err)
	}
	return data, nil
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
