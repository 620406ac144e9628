package ocr

import (
	"context"
	"strings"

	"github.com/adverant/nexus/docextract/internal/clients"
	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// TextRecognizer detects and reads text in a single call
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte, languages []string) ([]clients.Detection, error)
}

// RecognizerEngine adapts single-call classical recognizers (EasyOCR,
// PaddleOCR). Confidence is the mean token confidence on a 0-1 scale.
type RecognizerEngine struct {
	name       string
	recognizer TextRecognizer
	languages  []string
	pdf        *PDFRunner
	logger     *logging.Logger
}

// NewRecognizerEngine creates an engine named name backed by recognizer
func NewRecognizerEngine(name string, recognizer TextRecognizer, languages []string, pdf *PDFRunner) *RecognizerEngine {
	return &RecognizerEngine{
		name:       name,
		recognizer: recognizer,
		languages:  languages,
		pdf:        pdf,
		logger:     logging.NewLogger("RecognizerEngine"),
	}
}

func (e *RecognizerEngine) Name() string { return e.name }

func (e *RecognizerEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	data, perr := readInput(e.name, path)
	if perr != nil {
		return Failure(e.name, perr)
	}

	detections, err := e.recognizer.Recognize(ctx, data, e.languages)
	if err != nil {
		e.logger.Error("Recognition failed", "engine", e.name, "path", path, "error", err)
		return Failure(e.name, apperrors.Wrap(e.name, path, err))
	}

	texts := make([]string, 0, len(detections))
	confs := make([]float64, 0, len(detections))
	boxes := make([]Quad, 0, len(detections))
	words := make([]Word, 0, len(detections))
	for _, d := range detections {
		box := quadFromPolygon(d.Box)
		texts = append(texts, d.Text)
		confs = append(confs, d.Confidence)
		boxes = append(boxes, box)
		words = append(words, Word{Text: d.Text, Confidence: d.Confidence, Box: box})
	}

	return RecognitionResult{
		Engine:     e.name,
		Text:       strings.Join(texts, " "),
		Confidence: Scalar(mean(confs)),
		Boxes:      boxes,
		Words:      words,
	}
}

func (e *RecognizerEngine) ProcessPDF(ctx context.Context, path string) DocumentResult {
	return e.pdf.Run(ctx, path, e.name, "", e.ProcessImage)
}

// quadFromPolygon normalizes a back-end polygon to four points. Two-point
// boxes are treated as opposite corners of a rectangle.
func quadFromPolygon(poly [][2]float64) Quad {
	switch {
	case len(poly) >= 4:
		return Quad{poly[0], poly[1], poly[2], poly[3]}
	case len(poly) == 2:
		return QuadFromRect(poly[0][0], poly[0][1], poly[1][0], poly[1][1])
	default:
		return Quad{}
	}
}
