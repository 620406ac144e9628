package processor

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/ocr"
)

// FileKind is the dispatch class of an input file
type FileKind string

const (
	KindPDF         FileKind = "pdf"
	KindImage       FileKind = "image"
	KindUnsupported FileKind = "unsupported"
)

// AdmittedExtensions is the set of extensions the dispatcher accepts, both
// for directory walks and for uploads.
var AdmittedExtensions = map[string]FileKind{
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".tiff": KindImage,
	".bmp":  KindImage,
	".gif":  KindImage,
}

// KindOf classifies path by its extension
func KindOf(path string) FileKind {
	if kind, ok := AdmittedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	return KindUnsupported
}

// Admitted reports whether the dispatcher accepts name
func Admitted(name string) bool {
	return KindOf(name) != KindUnsupported
}

// FileResult holds every engine's output for one file, keyed by engine
// identifier, or a file-level error.
type FileResult struct {
	Path      string
	Kind      FileKind
	Images    map[string]ocr.RecognitionResult
	Documents map[string]ocr.DocumentResult
	Err       *apperrors.ProcessingError
}

// FailedEngines lists the identifiers whose output is an error, sorted
func (r FileResult) FailedEngines() []string {
	var failed []string
	for id, res := range r.Images {
		if !res.OK() {
			failed = append(failed, id)
		}
	}
	for id, doc := range r.Documents {
		if !doc.OK() {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	return failed
}

// Status summarizes the file: nil when every engine succeeded,
// PARTIAL_FAILURE when only some did, the file error otherwise.
func (r FileResult) Status() *apperrors.ProcessingError {
	if r.Err != nil {
		return r.Err
	}
	failed := r.FailedEngines()
	if len(failed) == 0 {
		return nil
	}
	if len(failed) == len(r.Images)+len(r.Documents) {
		return apperrors.NewBackendFailureError(strings.Join(failed, ","), r.Path, nil)
	}
	return apperrors.NewPartialFailureError(r.Path, failed)
}

func (r FileResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]string{
			"error":      r.Err.Text(),
			"error_code": string(r.Err.Code),
		})
	}

	out := make(map[string]interface{}, len(r.Images)+len(r.Documents))
	for id, res := range r.Images {
		out[id] = res
	}
	for id, doc := range r.Documents {
		out[id] = doc
	}
	return json.Marshal(out)
}

// DirectoryResult maps relative input paths to their results, or carries a
// directory-level error.
type DirectoryResult struct {
	Root  string
	Files map[string]FileResult
	Err   *apperrors.ProcessingError
}

func (d DirectoryResult) MarshalJSON() ([]byte, error) {
	if d.Err != nil {
		return json.Marshal(map[string]string{
			"error":      d.Err.Text(),
			"error_code": string(d.Err.Code),
		})
	}
	files := d.Files
	if files == nil {
		files = map[string]FileResult{}
	}
	return json.Marshal(files)
}
