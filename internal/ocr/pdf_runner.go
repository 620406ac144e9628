package ocr

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// TextLayer reads the embedded text of a PDF.
type TextLayer interface {
	HasSelectableText(path string) (bool, error)
	ExtractTextWithConfidence(path string) (DocumentResult, error)
}

// PageImages is a set of rendered pages living in a scoped directory.
type PageImages struct {
	Dir   string
	Paths []string
}

// Cleanup removes the scoped directory and everything in it.
func (p *PageImages) Cleanup() error {
	if p == nil || p.Dir == "" {
		return nil
	}
	return os.RemoveAll(p.Dir)
}

// Rasterizer renders every page of a PDF to an image file.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) (*PageImages, error)
}

// PDFRunner is the PDF flow shared by every engine: use the text layer when
// there is one, otherwise rasterize and recognize page by page.
type PDFRunner struct {
	textLayer  TextLayer
	rasterizer Rasterizer
	logger     *logging.Logger
}

// NewPDFRunner creates a PDF runner. Either dependency may be nil.
func NewPDFRunner(textLayer TextLayer, rasterizer Rasterizer) *PDFRunner {
	return &PDFRunner{
		textLayer:  textLayer,
		rasterizer: rasterizer,
		logger:     logging.NewLogger("PDFRunner"),
	}
}

// Run processes one PDF on behalf of engine, calling recognize once per page
// when the document has no text layer.
func (r *PDFRunner) Run(ctx context.Context, path, engine, model string, recognize func(context.Context, string) RecognitionResult) DocumentResult {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DocumentFailure(engine, apperrors.NewNotFoundError(path))
		}
		return DocumentFailure(engine, apperrors.NewBackendFailureError(engine, path, err))
	}

	if r.textLayer != nil {
		hasText, err := r.textLayer.HasSelectableText(path)
		if err != nil {
			return DocumentFailure(engine, apperrors.NewBackendFailureError(engine, path,
				fmt.Errorf("text layer probe: %w", err)))
		}
		if hasText {
			r.logger.Info("PDF has a text layer, skipping recognition", "path", path, "engine", engine)
			doc, err := r.textLayer.ExtractTextWithConfidence(path)
			if err != nil {
				return DocumentFailure(engine, apperrors.NewBackendFailureError(engine, path,
					fmt.Errorf("text layer extraction: %w", err)))
			}
			return doc
		}
	}

	if r.rasterizer == nil {
		return DocumentFailure(engine, apperrors.NewBackendFailureError(engine, path,
			fmt.Errorf("no rasterizer configured")))
	}

	images, err := r.rasterizer.Rasterize(ctx, path)
	if err != nil {
		return DocumentFailure(engine, apperrors.NewBackendFailureError(engine, path,
			fmt.Errorf("rasterize: %w", err)))
	}
	defer func() {
		if err := images.Cleanup(); err != nil {
			r.logger.Warn("Failed to remove rendered pages", "dir", images.Dir, "error", err)
		}
	}()

	r.logger.Debug("Recognizing rendered pages", "path", path, "engine", engine, "pages", len(images.Paths))

	pages := make([]PageResult, 0, len(images.Paths))
	for i, pagePath := range images.Paths {
		if err := ctx.Err(); err != nil {
			return DocumentFailure(engine, apperrors.NewBackendFailureError(engine, path, err))
		}

		res := recognize(ctx, pagePath)
		if !res.OK() {
			// one failed page fails the whole document
			return DocumentFailure(engine, &apperrors.ProcessingError{
				Code:      res.Err.Code,
				Message:   fmt.Sprintf("page %d: %s", i+1, res.Err.Text()),
				Path:      path,
				Timestamp: res.Err.Timestamp,
				Details:   map[string]interface{}{"page": i + 1, "engine": engine},
			})
		}
		pages = append(pages, PageResult{Page: i + 1, RecognitionResult: res})
	}

	return DocumentResult{Engine: engine, Model: model, Pages: pages}
}
