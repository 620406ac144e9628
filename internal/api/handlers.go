package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/processor"
)

const multipartMemory = 32 << 20

// ProcessResponse is the body of a successful POST /process
type ProcessResponse struct {
	Filename string               `json:"filename"`
	Results  processor.FileResult `json:"results"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		s.writeError(w, http.StatusBadRequest, "file name is required", "")
		return
	}

	if !processor.Admitted(filename) {
		perr := apperrors.NewUnsupportedTypeError(filename, filepath.Ext(filename))
		s.writeProcessingError(w, http.StatusBadRequest, perr,
			"Unsupported file type. Allowed types: "+strings.Join(allowedExtensions(), ", "))
		return
	}

	engines, err := s.selectEngines(r.MultipartForm.Value["engines"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid engine selection", err.Error())
		return
	}

	dir, err := os.MkdirTemp(s.tempDir, "upload-"+uuid.NewString()[:8]+"-*")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Error saving file", err.Error())
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filename)
	if err := saveUpload(path, file); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Error saving file", err.Error())
		return
	}

	proc, err := processor.NewDocumentProcessor(&processor.ProcessorConfig{
		Engines: engines,
		Metrics: s.metrics,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Error processing file", err.Error())
		return
	}

	s.logger.Info("Processing upload",
		"filename", filename,
		"size", header.Size,
		"engines", strings.Join(proc.EngineIDs(), ","))

	result := proc.ProcessFile(r.Context(), path)
	writeJSON(w, http.StatusOK, ProcessResponse{Filename: filename, Results: result})
}

// selectEngines resolves the requested names against the configured
// instances. A name matches an instance identifier or an engine family;
// no names means every configured engine.
func (s *Server) selectEngines(requested []string) ([]processor.Instance, error) {
	var names []string
	for _, v := range requested {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return s.engines, nil
	}

	var selected []processor.Instance
	taken := make(map[string]bool)
	for _, name := range names {
		matched := false
		for _, inst := range s.engines {
			if inst.ID != name && inst.Engine.Name() != name {
				continue
			}
			matched = true
			if !taken[inst.ID] {
				taken[inst.ID] = true
				selected = append(selected, inst)
			}
		}
		if !matched {
			return nil, fmt.Errorf("engine %q is not configured", name)
		}
	}
	return selected, nil
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func allowedExtensions() []string {
	exts := make([]string, 0, len(processor.AdmittedExtensions))
	for ext := range processor.AdmittedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, detail string) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(message, "detail", detail)
	}
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

func (s *Server) writeProcessingError(w http.ResponseWriter, status int, perr *apperrors.ProcessingError, detail string) {
	resp := perr.ToMap()
	resp["error"] = perr.Text()
	resp["detail"] = detail
	writeJSON(w, status, resp)
}
