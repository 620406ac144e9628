//go:build !cgo || notesseract

package ocr

import (
	"context"
	"fmt"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
)

// ProcessImage reports that Tesseract support was not compiled in.
func (e *TesseractEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	if _, perr := readInput(e.Name(), path); perr != nil {
		return Failure(e.Name(), perr)
	}
	return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path,
		fmt.Errorf("tesseract not available: built without cgo or with -tags notesseract")))
}
