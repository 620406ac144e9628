package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONWriter persists result documents as indented UTF-8 JSON files
type JSONWriter struct {
	root string
}

// NewJSONWriter creates a writer rooted at dir
func NewJSONWriter(dir string) *JSONWriter {
	return &JSONWriter{root: dir}
}

// Root returns the output directory
func (w *JSONWriter) Root() string {
	return w.root
}

// PathFor maps a path relative to the input root to its result file:
// the extension is replaced by .json and directories are kept.
func (w *JSONWriter) PathFor(rel string) string {
	stem := rel[:len(rel)-len(filepath.Ext(rel))]
	return filepath.Join(w.root, filepath.FromSlash(stem)+".json")
}

// Write serializes v to the result file of rel, creating directories.
// It returns the written path.
func (w *JSONWriter) Write(rel string, v interface{}) (string, error) {
	out := w.PathFor(rel)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(out), ".result-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write result file: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move result file: %w", err)
	}
	return out, nil
}
