package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/adverant/nexus/docextract/internal/clients"
	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/ocr"
	"github.com/adverant/nexus/docextract/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedEngine struct {
	name   string
	result ocr.RecognitionResult
	panics bool
}

func (s *scriptedEngine) Name() string { return s.name }

func (s *scriptedEngine) ProcessImage(ctx context.Context, path string) ocr.RecognitionResult {
	if s.panics {
		panic("boom")
	}
	if _, err := os.Stat(path); err != nil {
		return ocr.Failure(s.name, apperrors.NewNotFoundError(path))
	}
	return s.result
}

func (s *scriptedEngine) ProcessPDF(ctx context.Context, path string) ocr.DocumentResult {
	return ocr.DocumentResult{Engine: s.name}
}

func engine(id, text string, conf *float64) processor.Instance {
	res := ocr.RecognitionResult{Engine: id, Text: text}
	if conf != nil {
		res.Confidence = ocr.Scalar(*conf)
	}
	return processor.Instance{ID: id, Engine: &scriptedEngine{name: id, result: res}}
}

func failing(id string) processor.Instance {
	return processor.Instance{ID: id, Engine: &scriptedEngine{name: id, result: ocr.Failure(id,
		apperrors.NewBackendFailureError(id, "", fmt.Errorf("down")))}}
}

func f(v float64) *float64 { return &v }

func image(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	return p
}

func TestCombine(t *testing.T) {
	path := image(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		engines []processor.Instance
		want    string
	}{
		{"highest confidence wins", []processor.Instance{engine("a", "A", f(0.9)), engine("b", "B", f(0.4)), engine("c", "C", f(0.7))}, "A"},
		{"missing confidence counts as 0.5", []processor.Instance{engine("a", "A", nil), engine("b", "B", f(0.4))}, "A"},
		{"first wins ties", []processor.Instance{engine("a", "A", f(0.8)), engine("b", "B", f(0.8))}, "A"},
		{"failures are skipped", []processor.Instance{failing("a"), engine("b", "B", f(0.1))}, "B"},
		{"panics are skipped", []processor.Instance{{ID: "p", Engine: &scriptedEngine{name: "p", panics: true}}, engine("b", "B", f(0.1))}, "B"},
		{"nothing succeeded", []processor.Instance{failing("a"), failing("b")}, ""},
		{"no engines", nil, ""},
		{"raw scales are compared as-is", []processor.Instance{engine("easyocr", "E", f(0.99)), engine("tesseract", "T", f(42))}, "T"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Combine(ctx, path, tt.engines))
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Invoice \n\n  No.\t 42  ", "Invoice No. 42"},
		{"", ""},
		{"   ", ""},
		{"l0O5 S|", "l0O5 S|"},
		{"12345 Ol|S", "12345 Ol|S"},
		{"٣٤٥ abc", "٣٤٥ abc"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestTextCase(t *testing.T) {
	assert.True(t, isUpper("IBM"))
	assert.True(t, isUpper("3M CO"))
	assert.False(t, isUpper("123"))
	assert.False(t, isUpper("Acme"))

	assert.Equal(t, "Acme Shop", titleCase("acme SHOP"))
	assert.Equal(t, "O'Neil", titleCase("o'neil"))
	assert.Equal(t, "Abc123Def", titleCase("abc123def"))
	assert.Equal(t, "Ltd", titleCase("ltd"))
}

type fakeTagger struct {
	spans []clients.Span
	err   error
}

func (f *fakeTagger) Tag(ctx context.Context, text string) (*clients.TagResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &clients.TagResponse{Model: "en_core_web_sm", Ents: f.spans}, nil
}

func TestEntityExtractorRules(t *testing.T) {
	x := NewEntityExtractor(nil)

	t.Run("email line", func(t *testing.T) {
		got := x.Extract(context.Background(), "jane.doe@example.com")
		assert.Equal(t, []string{"jane.doe@example.com"}, got[CategoryEmail])
		assert.NotContains(t, got, CategoryAddress)
	})

	t.Run("address line", func(t *testing.T) {
		got := x.Extract(context.Background(), "123 Main Street")
		assert.Equal(t, []string{"123 Main Street"}, got[CategoryAddress])
	})

	t.Run("phone digits", func(t *testing.T) {
		got := x.Extract(context.Background(), "call +65 6123 4567 now, ext 12")
		assert.Equal(t, []string{"6561234567"}, got[CategoryPhone])
	})

	t.Run("short numbers are not phones", func(t *testing.T) {
		got := x.Extract(context.Background(), "qty 1234567")
		assert.NotContains(t, got, CategoryPhone)
	})

	t.Run("organizations", func(t *testing.T) {
		got := x.Extract(context.Background(), "the shipping department of SAMSUNG")
		orgs := got[CategoryOrganization]
		assert.Contains(t, orgs, "Shipping Department")
		assert.Contains(t, orgs, "SAMSUNG")
	})

	t.Run("organization dedup ignores case", func(t *testing.T) {
		got := x.Extract(context.Background(), "Ltd LTD ltd")
		assert.Equal(t, []string{"Ltd"}, got[CategoryOrganization])
	})

	t.Run("empty categories are omitted", func(t *testing.T) {
		got := x.Extract(context.Background(), "hello world")
		assert.Empty(t, got)
	})
}

func TestEntityExtractorWithTagger(t *testing.T) {
	tagger := &fakeTagger{spans: []clients.Span{
		{Text: "Jane Doe", Label: "PERSON"},
		{Text: "Acme Ltd", Label: "ORG"},
		{Text: "Singapore", Label: "GPE"},
		{Text: "Orchard", Label: "LOC"},
		{Text: "Monday", Label: "DATE"},
	}}
	got := NewEntityExtractor(tagger).Extract(context.Background(), "Jane Doe of Acme Ltd, Singapore")

	assert.Equal(t, []string{"Jane Doe"}, got[CategoryPerson])
	assert.Equal(t, []string{"Singapore", "Orchard"}, got[CategoryLocation])
	assert.Equal(t, "Acme Ltd", got[CategoryOrganization][0])
	assert.NotContains(t, got[CategoryOrganization], "ACME LTD")
	assert.NotContains(t, got, CategoryDate, "only person, organization and location come from the tagger")

	failingTagger := &fakeTagger{err: fmt.Errorf("tagger down")}
	got = NewEntityExtractor(failingTagger).Extract(context.Background(), "jane@acme.io")
	assert.Equal(t, []string{"jane@acme.io"}, got[CategoryEmail])
}

func TestPipelineProcessImage(t *testing.T) {
	ctx := context.Background()
	path := image(t)

	p := NewPipeline([]processor.Instance{
		engine("easyocr", "ACME  STORE\ninvoice", f(0.7)),
		engine("paddleocr", "noise", f(0.2)),
	}, nil)

	res := p.ProcessImage(ctx, path)
	require.Nil(t, res.Err)
	assert.Equal(t, "ACME  STORE\ninvoice", res.RawText)
	assert.Equal(t, "ACME STORE invoice", res.CleanedText)
	assert.Contains(t, res.Entities[CategoryOrganization], "ACME STORE")

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "raw_text")
	assert.Contains(t, m, "cleaned_text")
	assert.Contains(t, m, "entities")

	for _, missing := range []string{filepath.Join(t.TempDir(), "nope.png"), ""} {
		res := p.ProcessImage(ctx, missing)
		require.NotNil(t, res.Err)
		data, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error": "No text could be extracted from the image"}`, string(data))
	}
}
