package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/ocr"
	"github.com/adverant/nexus/docextract/internal/pdf"
	"github.com/adverant/nexus/docextract/internal/pdf/pdftest"
	"github.com/adverant/nexus/docextract/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name      string
	text      string
	fail      bool
	panics    bool
	imageRuns int
	pdfRuns   int
	runner    *ocr.PDFRunner
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) ProcessImage(ctx context.Context, path string) ocr.RecognitionResult {
	s.imageRuns++
	if s.panics {
		panic("engine exploded")
	}
	if s.fail {
		return ocr.Failure(s.name, apperrors.NewBackendFailureError(s.name, path, fmt.Errorf("unavailable")))
	}
	return ocr.RecognitionResult{Engine: s.name, Text: s.text, Confidence: ocr.Scalar(0.9)}
}

func (s *stubEngine) ProcessPDF(ctx context.Context, path string) ocr.DocumentResult {
	s.pdfRuns++
	if s.runner != nil {
		return s.runner.Run(ctx, path, s.name, "", s.ProcessImage)
	}
	if s.fail {
		return ocr.DocumentFailure(s.name, apperrors.NewBackendFailureError(s.name, path, fmt.Errorf("unavailable")))
	}
	return ocr.DocumentResult{Engine: s.name, Pages: []ocr.PageResult{{Page: 1, RecognitionResult: s.ProcessImage(ctx, path)}}}
}

func touch(t *testing.T, dir, rel string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
	return p
}

func newProcessor(t *testing.T, writer ResultWriter, engines ...Instance) *DocumentProcessor {
	t.Helper()
	p, err := NewDocumentProcessor(&ProcessorConfig{Engines: engines, Writer: writer})
	require.NoError(t, err)
	return p
}

func TestNewDocumentProcessorValidatesEngines(t *testing.T) {
	eng := &stubEngine{name: "tesseract"}

	tests := []struct {
		name    string
		engines []Instance
	}{
		{"no engines", nil},
		{"empty id", []Instance{{ID: "", Engine: eng}}},
		{"nil engine", []Instance{{ID: "tesseract"}}},
		{"duplicate id", []Instance{{ID: "tesseract", Engine: eng}, {ID: "tesseract", Engine: eng}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocumentProcessor(&ProcessorConfig{Engines: tt.engines})
			var perr *apperrors.ProcessingError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, apperrors.ErrorConfigInvalid, perr.Code)
		})
	}

	// two instances of the same family with distinct identifiers are fine
	_, err := NewDocumentProcessor(&ProcessorConfig{Engines: []Instance{
		{ID: "tesseract", Engine: eng},
		{ID: "tesseract:deu", Engine: &stubEngine{name: "tesseract"}},
	}})
	assert.NoError(t, err)
}

func TestProcessFileDispatch(t *testing.T) {
	dir := t.TempDir()
	a := &stubEngine{name: "easyocr", text: "from a"}
	b := &stubEngine{name: "surya", text: "from b"}
	p := newProcessor(t, nil, Instance{ID: "easyocr", Engine: a}, Instance{ID: "surya", Engine: b})

	t.Run("image goes to every engine", func(t *testing.T) {
		res := p.ProcessFile(context.Background(), touch(t, dir, "scan.PNG"))
		require.Nil(t, res.Err)
		assert.Equal(t, KindImage, res.Kind)
		assert.Len(t, res.Images, 2)
		assert.Equal(t, "from a", res.Images["easyocr"].Text)
		assert.Equal(t, "from b", res.Images["surya"].Text)
		assert.Nil(t, res.Status())
	})

	t.Run("pdf goes to the pdf path", func(t *testing.T) {
		res := p.ProcessFile(context.Background(), touch(t, dir, "doc.pdf"))
		assert.Equal(t, KindPDF, res.Kind)
		assert.Len(t, res.Documents, 2)
		assert.Equal(t, 1, a.pdfRuns)
	})

	t.Run("unsupported extension is skipped", func(t *testing.T) {
		before := a.imageRuns + a.pdfRuns
		res := p.ProcessFile(context.Background(), touch(t, dir, "notes.txt"))
		assert.Nil(t, res.Err)
		assert.Equal(t, KindUnsupported, res.Kind)
		assert.Equal(t, before, a.imageRuns+a.pdfRuns)

		data, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		res := p.ProcessFile(context.Background(), filepath.Join(dir, "missing.png"))
		require.NotNil(t, res.Err)
		assert.Equal(t, apperrors.ErrorNotFound, res.Err.Code)

		data, err := json.Marshal(res)
		require.NoError(t, err)
		assert.Contains(t, string(data), "does not exist")
	})
}

func TestProcessFileIsolatesEngineFailures(t *testing.T) {
	img := touch(t, t.TempDir(), "scan.jpg")
	ok := &stubEngine{name: "tesseract", text: "fine"}
	p := newProcessor(t, nil,
		Instance{ID: "broken", Engine: &stubEngine{name: "ollama", fail: true}},
		Instance{ID: "exploding", Engine: &stubEngine{name: "openai", panics: true}},
		Instance{ID: "tesseract", Engine: ok},
	)

	res := p.ProcessFile(context.Background(), img)

	assert.False(t, res.Images["broken"].OK())
	assert.False(t, res.Images["exploding"].OK())
	assert.Contains(t, res.Images["exploding"].Err.Text(), "engine exploded")
	assert.Equal(t, "fine", res.Images["tesseract"].Text)

	assert.Equal(t, []string{"broken", "exploding"}, res.FailedEngines())
	status := res.Status()
	require.NotNil(t, status)
	assert.Equal(t, apperrors.ErrorPartialFailure, status.Code)
}

func TestProcessFileSameFamilyInstancesKeepSeparateResults(t *testing.T) {
	img := touch(t, t.TempDir(), "scan.png")
	p := newProcessor(t, nil,
		Instance{ID: "tesseract", Engine: &stubEngine{name: "tesseract", text: "english"}},
		Instance{ID: "tesseract:deu", Engine: &stubEngine{name: "tesseract", text: "deutsch"}},
	)

	res := p.ProcessFile(context.Background(), img)
	require.Len(t, res.Images, 2)
	assert.Equal(t, "english", res.Images["tesseract"].Text)
	assert.Equal(t, "deutsch", res.Images["tesseract:deu"].Text)
}

func TestProcessFileNativePDF(t *testing.T) {
	dir := t.TempDir()
	path, err := pdftest.Write(dir, "invoice.pdf", "Page 1 - Sample Invoice", "Page 2 - Terms")
	require.NoError(t, err)

	runner := ocr.NewPDFRunner(pdf.NewTextLayer(), nil)
	eng := &stubEngine{name: "tesseract", runner: runner}
	p := newProcessor(t, nil, Instance{ID: "tesseract", Engine: eng})

	res := p.ProcessFile(context.Background(), path)
	doc := res.Documents["tesseract"]
	require.True(t, doc.OK(), "%v", doc.Err)
	assert.Equal(t, "native_pdf", doc.Engine)
	require.Len(t, doc.Pages, 2)
	assert.Contains(t, doc.Pages[0].Text, "Sample Invoice")
	assert.Equal(t, 0, eng.imageRuns, "no recognition for a PDF with a text layer")
}

func TestProcessDirectory(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	touch(t, in, "a.png")
	touch(t, in, "b.pdf")
	touch(t, in, "readme.md")
	touch(t, in, "sub/c.tiff")
	touch(t, in, "sub/deeper/d.gif")

	writer := storage.NewJSONWriter(out)
	eng := &stubEngine{name: "easyocr", text: "x"}

	t.Run("top level only", func(t *testing.T) {
		p := newProcessor(t, writer, Instance{ID: "easyocr", Engine: eng})
		res := p.ProcessDirectory(context.Background(), in, false)
		require.Nil(t, res.Err)

		assert.ElementsMatch(t, []string{"a.png", "b.pdf"}, keys(res.Files))
		assert.FileExists(t, filepath.Join(out, "a.json"))
		assert.FileExists(t, filepath.Join(out, "b.json"))
		assert.NoFileExists(t, filepath.Join(out, "readme.json"))
	})

	t.Run("recursive mirrors directories", func(t *testing.T) {
		p := newProcessor(t, writer, Instance{ID: "easyocr", Engine: eng})
		res := p.ProcessDirectory(context.Background(), in, true)
		require.Nil(t, res.Err)

		assert.ElementsMatch(t, []string{"a.png", "b.pdf", "sub/c.tiff", "sub/deeper/d.gif"}, keys(res.Files))
		assert.FileExists(t, filepath.Join(out, "sub", "c.json"))
		assert.FileExists(t, filepath.Join(out, "sub", "deeper", "d.json"))

		data, err := os.ReadFile(filepath.Join(out, "sub", "c.json"))
		require.NoError(t, err)
		var doc map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "x", doc["easyocr"]["text"])
	})

	t.Run("missing root", func(t *testing.T) {
		p := newProcessor(t, writer, Instance{ID: "easyocr", Engine: eng})
		res := p.ProcessDirectory(context.Background(), filepath.Join(in, "nope"), true)
		require.NotNil(t, res.Err)
		assert.Equal(t, apperrors.ErrorNotFound, res.Err.Code)
		assert.Nil(t, res.Files)
	})
}

func TestProcessDirectoryWalk(t *testing.T) {
	eng := &stubEngine{name: "easyocr", text: "x"}

	t.Run("symlinked files are followed", func(t *testing.T) {
		in := t.TempDir()
		target := touch(t, t.TempDir(), "scan.png")
		require.NoError(t, os.Symlink(target, filepath.Join(in, "linked.png")))
		touch(t, in, "sub/own.png")

		p := newProcessor(t, storage.NewJSONWriter(t.TempDir()), Instance{ID: "easyocr", Engine: eng})
		for _, recursive := range []bool{false, true} {
			res := p.ProcessDirectory(context.Background(), in, recursive)
			require.Nil(t, res.Err)
			assert.Contains(t, keys(res.Files), "linked.png")
		}
	})

	t.Run("unreadable subdirectory is skipped", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permissions are not enforced for root")
		}
		in := t.TempDir()
		touch(t, in, "a.png")
		touch(t, in, "locked/b.png")
		touch(t, in, "open/c.png")
		locked := filepath.Join(in, "locked")
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { os.Chmod(locked, 0o755) })

		p := newProcessor(t, storage.NewJSONWriter(t.TempDir()), Instance{ID: "easyocr", Engine: eng})
		res := p.ProcessDirectory(context.Background(), in, true)
		require.Nil(t, res.Err)
		assert.ElementsMatch(t, []string{"a.png", "open/c.png"}, keys(res.Files))
	})
}

func TestAdmitted(t *testing.T) {
	for _, name := range []string{"a.pdf", "a.PNG", "a.jpg", "a.jpeg", "a.tiff", "a.bmp", "a.gif"} {
		assert.True(t, Admitted(name), name)
	}
	for _, name := range []string{"a.txt", "a.tif", "a", "a.docx"} {
		assert.False(t, Admitted(name), name)
	}
}

func keys(m map[string]FileResult) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
