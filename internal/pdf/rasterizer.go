package pdf

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"

	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/ocr"
)

// Rasterizer renders PDF pages to PNG files with MuPDF
type Rasterizer struct {
	tempDir string
	dpi     float64
	logger  *logging.Logger
}

// NewRasterizer creates a rasterizer writing below tempDir at dpi
func NewRasterizer(tempDir string, dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = 200
	}
	return &Rasterizer{
		tempDir: tempDir,
		dpi:     float64(dpi),
		logger:  logging.NewLogger("Rasterizer"),
	}
}

// Rasterize renders every page into a fresh directory owned by the caller.
// On error nothing is left behind.
func (r *Rasterizer) Rasterize(ctx context.Context, path string) (*ocr.PageImages, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if r.tempDir != "" {
		if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp root: %w", err)
		}
	}
	runID := uuid.NewString()
	dir, err := os.MkdirTemp(r.tempDir, "pages-"+runID[:8]+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create page directory: %w", err)
	}

	images := &ocr.PageImages{Dir: dir}
	fail := func(err error) (*ocr.PageImages, error) {
		_ = images.Cleanup()
		return nil, err
	}

	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			return fail(fmt.Errorf("failed to render page %d: %w", i+1, err))
		}

		out := filepath.Join(dir, fmt.Sprintf("page-%04d.png", i+1))
		f, err := os.Create(out)
		if err != nil {
			return fail(err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return fail(fmt.Errorf("failed to encode page %d: %w", i+1, err))
		}
		if err := f.Close(); err != nil {
			return fail(err)
		}
		images.Paths = append(images.Paths, out)
	}

	r.logger.Debug("Rendered PDF", "path", path, "pages", len(images.Paths), "dir", dir, "run", runID)
	return images, nil
}
