package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/adverant/nexus/docextract/internal/clients"
	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// RegionDetector finds text regions
type RegionDetector interface {
	Detect(ctx context.Context, image []byte) ([]clients.Region, error)
}

// RegionReader reads the text of detected regions
type RegionReader interface {
	Read(ctx context.Context, image []byte, regions []clients.Region, languages []string) ([]clients.TextLine, error)
}

// DetectReadEngine runs a detector followed by a recognizer over the same
// image (Surya). Confidence is the mean line confidence, 0 with no lines.
type DetectReadEngine struct {
	name      string
	model     string
	detector  RegionDetector
	reader    RegionReader
	languages []string
	pdf       *PDFRunner
	logger    *logging.Logger
}

// DetectReadConfig holds detector/recognizer engine configuration
type DetectReadConfig struct {
	Name      string
	Model     string
	Languages []string
}

// NewDetectReadEngine creates a detector+recognizer engine
func NewDetectReadEngine(cfg DetectReadConfig, detector RegionDetector, reader RegionReader, pdf *PDFRunner) *DetectReadEngine {
	return &DetectReadEngine{
		name:      cfg.Name,
		model:     cfg.Model,
		detector:  detector,
		reader:    reader,
		languages: cfg.Languages,
		pdf:       pdf,
		logger:    logging.NewLogger("DetectReadEngine"),
	}
}

func (e *DetectReadEngine) Name() string { return e.name }

func (e *DetectReadEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	data, perr := readInput(e.name, path)
	if perr != nil {
		return Failure(e.name, perr)
	}

	regions, err := e.detector.Detect(ctx, data)
	if err != nil {
		return Failure(e.name, apperrors.NewBackendFailureError(e.name, path, fmt.Errorf("detection: %w", err)))
	}

	var lines []clients.TextLine
	if len(regions) > 0 {
		lines, err = e.reader.Read(ctx, data, regions, e.languages)
		if err != nil {
			return Failure(e.name, apperrors.NewBackendFailureError(e.name, path, fmt.Errorf("recognition: %w", err)))
		}
	}

	texts := make([]string, 0, len(lines))
	confs := make([]float64, 0, len(lines))
	boxes := make([]Quad, 0, len(lines))
	words := make([]Word, 0, len(lines))
	for _, l := range lines {
		box := quadFromPolygon(l.Box)
		texts = append(texts, l.Text)
		confs = append(confs, l.Confidence)
		boxes = append(boxes, box)
		words = append(words, Word{Text: l.Text, Confidence: l.Confidence, Box: box})
	}

	e.logger.Debug("Detect+read complete", "path", path, "regions", len(regions), "lines", len(lines))

	return RecognitionResult{
		Engine:     e.name,
		Model:      e.model,
		Text:       strings.Join(texts, " "),
		Confidence: Scalar(mean(confs)),
		Boxes:      boxes,
		Words:      words,
	}
}

func (e *DetectReadEngine) ProcessPDF(ctx context.Context, path string) DocumentResult {
	return e.pdf.Run(ctx, path, e.name, e.model, e.ProcessImage)
}
