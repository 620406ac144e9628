/**
 * Document Processor - fans one input file out to every configured engine
 *
 * PDFs go to each engine's PDF path, images to its image path. Engines run
 * one after another; a failing or panicking engine only fills its own slot
 * of the FileResult.
 */

package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/metrics"
	"github.com/adverant/nexus/docextract/internal/ocr"
)

// Instance is one configured engine with its unique identifier
type Instance struct {
	ID     string
	Engine ocr.Engine
}

// ResultWriter persists one file's results below the output directory
type ResultWriter interface {
	Write(rel string, v interface{}) (string, error)
}

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Engines []Instance
	Writer  ResultWriter // required by ProcessDirectory
	Metrics *metrics.Metrics
}

// DocumentProcessor dispatches files to engines
type DocumentProcessor struct {
	engines []Instance
	writer  ResultWriter
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewDocumentProcessor creates a new document processor. Engine identifiers
// must be unique because they key the per-file results.
func NewDocumentProcessor(cfg *ProcessorConfig) (*DocumentProcessor, error) {
	if len(cfg.Engines) == 0 {
		return nil, apperrors.NewConfigInvalidError("at least one engine is required", nil)
	}

	seen := make(map[string]bool, len(cfg.Engines))
	for _, inst := range cfg.Engines {
		if inst.ID == "" {
			return nil, apperrors.NewConfigInvalidError("engine identifier must not be empty", nil)
		}
		if inst.Engine == nil {
			return nil, apperrors.NewConfigInvalidError(fmt.Sprintf("engine %q has no implementation", inst.ID), nil)
		}
		if seen[inst.ID] {
			return nil, apperrors.NewConfigInvalidError(fmt.Sprintf("engine identifier %q is used twice", inst.ID), nil)
		}
		seen[inst.ID] = true
	}

	return &DocumentProcessor{
		engines: cfg.Engines,
		writer:  cfg.Writer,
		metrics: cfg.Metrics,
		logger:  logging.NewLogger("DocumentProcessor"),
	}, nil
}

// EngineIDs lists the configured engine identifiers in run order
func (p *DocumentProcessor) EngineIDs() []string {
	ids := make([]string, len(p.engines))
	for i, inst := range p.engines {
		ids[i] = inst.ID
	}
	return ids
}

// ProcessFile runs every engine on one file
func (p *DocumentProcessor) ProcessFile(ctx context.Context, path string) FileResult {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		p.metrics.RecordFile("missing", "error")
		return FileResult{Path: path, Err: apperrors.NewNotFoundError(path)}
	}

	kind := KindOf(path)
	result := FileResult{Path: path, Kind: kind}

	switch kind {
	case KindPDF:
		result.Documents = make(map[string]ocr.DocumentResult, len(p.engines))
		for _, inst := range p.engines {
			result.Documents[inst.ID] = p.runPDF(ctx, inst, path)
		}
	case KindImage:
		result.Images = make(map[string]ocr.RecognitionResult, len(p.engines))
		for _, inst := range p.engines {
			result.Images[inst.ID] = p.runImage(ctx, inst, path)
		}
	default:
		p.logger.Debug("Skipping unsupported file", "path", path)
	}

	status := "ok"
	if failed := result.FailedEngines(); len(failed) > 0 {
		status = "partial"
		if len(failed) == len(p.engines) {
			status = "error"
		}
		p.logger.Warn("Engines failed", "path", path, "failed", strings.Join(failed, ","))
	}
	p.metrics.RecordFile(string(kind), status)

	return result
}

func (p *DocumentProcessor) runImage(ctx context.Context, inst Instance, path string) (res ocr.RecognitionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Engine panicked", "engine", inst.ID, "path", path, "panic", fmt.Sprint(r))
			res = ocr.Failure(inst.Engine.Name(), apperrors.NewBackendFailureError(inst.ID, path, fmt.Errorf("panic: %v", r)))
		}
		p.metrics.RecordEngineCall(inst.ID, "image", outcome(res.OK(), false), time.Since(start))
	}()

	return inst.Engine.ProcessImage(ctx, path)
}

func (p *DocumentProcessor) runPDF(ctx context.Context, inst Instance, path string) (doc ocr.DocumentResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Engine panicked", "engine", inst.ID, "path", path, "panic", fmt.Sprint(r))
			doc = ocr.DocumentFailure(inst.Engine.Name(), apperrors.NewBackendFailureError(inst.ID, path, fmt.Errorf("panic: %v", r)))
		}
		p.metrics.RecordEngineCall(inst.ID, "pdf", outcome(doc.OK(), doc.Engine == ocr.NativeEngine), time.Since(start))
	}()

	return inst.Engine.ProcessPDF(ctx, path)
}

func outcome(ok, native bool) string {
	switch {
	case !ok:
		return "error"
	case native:
		return "native"
	default:
		return "ok"
	}
}

// ProcessDirectory processes every admitted file under root, writes one
// result document per file and returns the results keyed by relative path.
func (p *DocumentProcessor) ProcessDirectory(ctx context.Context, root string, recursive bool) DirectoryResult {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return DirectoryResult{Root: root, Err: apperrors.NewDirectoryNotFoundError(root)}
	}

	files, err := p.listFiles(root, recursive)
	if err != nil {
		return DirectoryResult{Root: root, Err: apperrors.NewBackendFailureError("dispatcher", root, err)}
	}

	p.logger.Info("Processing directory", "root", root, "recursive", recursive, "files", len(files))

	result := DirectoryResult{Root: root, Files: make(map[string]FileResult, len(files))}
	written := make(map[string]string, len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("Directory processing cancelled", "root", root, "error", err)
			break
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		rel = filepath.ToSlash(rel)

		fileResult := p.ProcessFile(ctx, path)
		result.Files[rel] = fileResult

		if p.writer == nil {
			continue
		}
		out, err := p.writer.Write(rel, fileResult)
		p.metrics.RecordWrite(err)
		if err != nil {
			p.logger.Error("Failed to write result", "path", rel, "error", err)
			continue
		}
		if prev, ok := written[out]; ok {
			p.logger.Warn("Result file overwritten by a file with the same stem", "output", out, "previous", prev, "current", rel)
		}
		written[out] = rel
		p.logger.Info("Saved results", "path", rel, "output", out)
	}

	return result
}

// listFiles returns the admitted files under root in lexical order.
// Unreadable subdirectories are skipped with a warning; symlinks to
// regular files are followed.
func (p *DocumentProcessor) listFiles(root string, recursive bool) ([]string, error) {
	var files []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			path := filepath.Join(root, e.Name())
			if isFile(path, e) && Admitted(e.Name()) {
				files = append(files, path)
			}
		}
		return files, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			p.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if isFile(path, d) && Admitted(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
