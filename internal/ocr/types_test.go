package ocr

import (
	"encoding/json"
	"testing"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestRecognitionResultJSON(t *testing.T) {
	t.Run("success always carries text and boxes", func(t *testing.T) {
		m := toMap(t, RecognitionResult{Engine: "ollama", Model: "llava", Text: ""})
		assert.Equal(t, "", m["text"])
		assert.Equal(t, []interface{}{}, m["boxes"])
		assert.NotContains(t, m, "error")
		assert.NotContains(t, m, "confidence")
	})

	t.Run("failure carries only the error", func(t *testing.T) {
		res := Failure("surya", apperrors.NewNotFoundError("/x.png"))
		m := toMap(t, res)
		assert.Equal(t, "File /x.png does not exist", m["error"])
		assert.Equal(t, "NOT_FOUND", m["error_code"])
		assert.NotContains(t, m, "text")
		assert.NotContains(t, m, "boxes")
	})

	t.Run("scalar and list confidence", func(t *testing.T) {
		m := toMap(t, RecognitionResult{Text: "a", Confidence: Scalar(87.5)})
		assert.Equal(t, 87.5, m["confidence"])

		m = toMap(t, RecognitionResult{Text: "a b", Confidence: PerElement([]float64{1, 1})})
		assert.Equal(t, []interface{}{1.0, 1.0}, m["confidence"])
	})

	t.Run("page number is attached", func(t *testing.T) {
		m := toMap(t, PageResult{Page: 3, RecognitionResult: RecognitionResult{Engine: "tesseract", Text: "x"}})
		assert.Equal(t, 3.0, m["page"])
		assert.Equal(t, "x", m["text"])
	})
}

func TestRecognitionResultRoundTrip(t *testing.T) {
	in := RecognitionResult{
		Engine:     "easyocr",
		Text:       "Invoice 42",
		Confidence: Scalar(0.91),
		Boxes:      []Quad{QuadFromRect(0, 0, 10, 5)},
		Words:      []Word{{Text: "Invoice", Confidence: 0.9, Box: QuadFromRect(0, 0, 5, 5)}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out RecognitionResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.OK())
	assert.Equal(t, in.Text, out.Text)
	assert.Equal(t, in.Boxes, out.Boxes)
	v, ok := out.Confidence.Value()
	assert.True(t, ok)
	assert.Equal(t, 0.91, v)
}

func TestDocumentResultJSON(t *testing.T) {
	doc := DocumentResult{
		Engine: NativeEngine,
		Pages: []PageResult{
			{Page: 1, RecognitionResult: RecognitionResult{Engine: NativeEngine, Text: "", Confidence: PerElement(nil)}},
		},
	}
	m := toMap(t, doc)
	assert.Equal(t, "native_pdf", m["engine"])
	pages := m["pages"].([]interface{})
	require.Len(t, pages, 1)
	page := pages[0].(map[string]interface{})
	assert.Equal(t, []interface{}{}, page["confidence"])
	assert.Equal(t, []interface{}{}, page["boxes"])

	failed := toMap(t, DocumentFailure("ollama", apperrors.NewBackendFailureError("ollama", "a.pdf", assert.AnError)))
	assert.Contains(t, failed, "error")
	assert.NotContains(t, failed, "pages")
}
