/**
 * Tesseract OCR - local classical engine
 *
 * Word boxes come from Tesseract's iterator at word level. Confidence is the
 * mean of the word confidences on Tesseract's own 0-100 scale; the -1
 * "no confidence" marker is left out of the mean.
 */

package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/adverant/nexus/docextract/internal/config"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// TesseractConfig holds Tesseract configuration
type TesseractConfig struct {
	Languages      []string
	TessdataPrefix string
}

// TesseractEngine runs Tesseract in-process
type TesseractEngine struct {
	languages []string
	tessdata  string
	pdf       *PDFRunner
	logger    *logging.Logger
}

// NewTesseractEngine creates a new Tesseract engine
func NewTesseractEngine(cfg TesseractConfig, pdf *PDFRunner) *TesseractEngine {
	return &TesseractEngine{
		languages: tesseractLanguages(cfg.Languages),
		tessdata:  cfg.TessdataPrefix,
		pdf:       pdf,
		logger:    logging.NewLogger("TesseractEngine"),
	}
}

func (e *TesseractEngine) Name() string { return config.EngineTesseract }

func (e *TesseractEngine) ProcessPDF(ctx context.Context, path string) DocumentResult {
	return e.pdf.Run(ctx, path, e.Name(), "", e.ProcessImage)
}

// tesseractWord is one word as reported by the word iterator
type tesseractWord struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

const noConfidence = -1

// summarizeWords turns iterator output into a result: empty words dropped,
// text space-joined, confidence averaged over words that reported one.
func summarizeWords(words []tesseractWord) RecognitionResult {
	var (
		texts  []string
		confs  []float64
		boxes  []Quad
		detail []Word
	)
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		box := QuadFromRect(float64(w.Box.Min.X), float64(w.Box.Min.Y), float64(w.Box.Max.X), float64(w.Box.Max.Y))
		texts = append(texts, text)
		boxes = append(boxes, box)
		detail = append(detail, Word{Text: text, Confidence: w.Confidence, Box: box})
		if w.Confidence != noConfidence {
			confs = append(confs, w.Confidence)
		}
	}

	return RecognitionResult{
		Engine:     config.EngineTesseract,
		Text:       strings.Join(texts, " "),
		Confidence: Scalar(mean(confs)),
		Boxes:      boxes,
		Words:      detail,
	}
}

// ISO 639-1 codes accepted on the command line, mapped to traineddata names
var tesseractLangCodes = map[string]string{
	"en": "eng",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"nl": "nld",
	"ru": "rus",
	"ar": "ara",
	"hi": "hin",
	"ja": "jpn",
	"ko": "kor",
	"zh": "chi_sim",
}

func tesseractLanguages(langs []string) []string {
	if len(langs) == 0 {
		return []string{"eng"}
	}
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if mapped, ok := tesseractLangCodes[strings.ToLower(l)]; ok {
			l = mapped
		}
		out = append(out, l)
	}
	return out
}
