//go:build cgo && !notesseract

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
)

// ProcessImage performs OCR using Tesseract
func (e *TesseractEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	if _, perr := readInput(e.Name(), path); perr != nil {
		return Failure(e.Name(), perr)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdata != "" {
		client.SetTessdataPrefix(e.tessdata)
	}
	if err := client.SetLanguage(e.languages...); err != nil {
		return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path, fmt.Errorf("set language: %w", err)))
	}
	if err := client.SetImage(path); err != nil {
		return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path, fmt.Errorf("failed to set image: %w", err)))
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path, fmt.Errorf("tesseract OCR failed: %w", err)))
	}

	words := make([]tesseractWord, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, tesseractWord{Text: b.Word, Confidence: b.Confidence, Box: b.Box})
	}

	res := summarizeWords(words)
	e.logger.Debug("Tesseract OCR complete",
		"path", path,
		"languages", strings.Join(e.languages, "+"),
		"words", len(res.Words),
		"textLength", len(res.Text))
	return res
}
