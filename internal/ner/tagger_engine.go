package ner

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/pipeline"
)

const minPhoneTokenLength = 10

var tokenEmailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(?:\.[\w-]+)+$`)

// TaggerEngine reports every category a statistical tagger knows, plus
// e-mail addresses and long numbers found token by token.
type TaggerEngine struct {
	tagger pipeline.Tagger
	logger *logging.Logger
}

// NewTaggerEngine creates a tagger-backed NER engine
func NewTaggerEngine(tagger pipeline.Tagger) *TaggerEngine {
	return &TaggerEngine{
		tagger: tagger,
		logger: logging.NewLogger("TaggerNER"),
	}
}

func (e *TaggerEngine) Name() string { return TaggerEngineName }

func (e *TaggerEngine) ProcessText(ctx context.Context, text string) Result {
	resp, err := e.tagger.Tag(ctx, text)
	if err != nil {
		e.logger.Error("Error processing text with tagger NER", "error", err)
		return failure(apperrors.Wrap(e.Name(), "", err))
	}

	entities := pipeline.EntityMap{}
	for _, span := range resp.Ents {
		if category, ok := pipeline.CategoryForLabel(span.Label); ok {
			entities.Add(category, span.Text)
		}
	}

	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, `,;:!?()[]"'.`)
		switch {
		case tokenEmailPattern.MatchString(tok):
			entities.Add(pipeline.CategoryEmail, tok)
		case likeNumber(tok) && len(tok) >= minPhoneTokenLength:
			entities.Add(pipeline.CategoryPhone, tok)
		}
	}

	data, err := json.Marshal(entities)
	if err != nil {
		return failure(apperrors.NewBackendFailureError(e.Name(), "", err))
	}

	return Result{
		Engine:   e.Name(),
		Model:    resp.Model,
		Entities: data,
	}
}

func (e *TaggerEngine) ProcessJSONSchema(ctx context.Context, jsonText string) Result {
	return processJSON(ctx, e.logger, jsonText, e.ProcessText)
}

// likeNumber reports whether tok is digits, optionally grouped with
// commas or dots.
func likeNumber(tok string) bool {
	digits := 0
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ',' || r == '.':
		default:
			return false
		}
	}
	return digits > 0
}
