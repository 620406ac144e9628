/**
 * NER engines - entity extraction over plain text or JSON documents
 *
 * Every engine accepts plain text and JSON. JSON input is validated and
 * flattened into "key: value" text before it reaches the model.
 */

package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// Engine names as they appear in results
const (
	OpenAIEngineName = "gpt4-ner"
	OllamaEngineName = "ollama-ner"
	TaggerEngineName = "spacy-ner"
)

// Engine extracts named entities
type Engine interface {
	Name() string
	ProcessText(ctx context.Context, text string) Result
	ProcessJSONSchema(ctx context.Context, jsonText string) Result
}

// Result is the outcome of one NER call. Exactly one of Entities and Err
// is set.
type Result struct {
	Engine      string
	Model       string
	Entities    json.RawMessage
	RawResponse json.RawMessage
	Err         *apperrors.ProcessingError
}

// OK reports whether the call succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]string{"error": r.Err.Text()})
	}
	return json.Marshal(struct {
		Engine      string          `json:"engine"`
		Model       string          `json:"model"`
		Entities    json.RawMessage `json:"entities"`
		RawResponse json.RawMessage `json:"raw_response,omitempty"`
	}{r.Engine, r.Model, r.Entities, r.RawResponse})
}

func failure(err *apperrors.ProcessingError) Result {
	return Result{Err: err}
}

// processJSON validates and flattens jsonText, then hands it to process.
func processJSON(ctx context.Context, logger *logging.Logger, jsonText string, process func(context.Context, string) Result) Result {
	flat, err := FlattenJSON(jsonText)
	if err != nil {
		logger.Error("Error processing JSON schema", "error", err)
		return failure(apperrors.NewParseFailureError("Invalid JSON input", err))
	}
	return process(ctx, flat)
}

// FlattenJSON renders a JSON document as space-separated "key: value"
// items, keeping the document's key order. Nested keys are joined with a
// space, list items become key[i] (or i at the top level) and a top-level
// scalar is rendered on its own.
func FlattenJSON(text string) (string, error) {
	var probe interface{}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return "", err
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	out, _, err := flattenNext(dec, "")
	if err != nil {
		return "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", fmt.Errorf("unexpected data after top-level value")
	}
	return out, nil
}

// flattenNext consumes one value. container reports whether it was an
// object or array.
func flattenNext(dec *json.Decoder, parent string) (out string, container bool, err error) {
	tok, err := dec.Token()
	if err != nil {
		return "", false, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return scalarString(tok), false, nil
	}

	var items []string
	switch delim {
	case '{':
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return "", true, err
			}
			key, _ := kt.(string)
			if parent != "" {
				key = parent + " " + key
			}
			item, err := flattenMember(dec, key)
			if err != nil {
				return "", true, err
			}
			items = append(items, item)
		}
	case '[':
		for i := 0; dec.More(); i++ {
			key := strconv.Itoa(i)
			if parent != "" {
				key = fmt.Sprintf("%s[%d]", parent, i)
			}
			item, err := flattenMember(dec, key)
			if err != nil {
				return "", true, err
			}
			items = append(items, item)
		}
	}

	// closing delimiter
	if _, err := dec.Token(); err != nil {
		return "", true, err
	}
	return strings.Join(items, " "), true, nil
}

func flattenMember(dec *json.Decoder, key string) (string, error) {
	s, container, err := flattenNext(dec, key)
	if err != nil {
		return "", err
	}
	if container {
		return s, nil
	}
	return key + ": " + s, nil
}

func scalarString(tok json.Token) string {
	switch v := tok.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}

const jsonFence = "```json"

// extractJSON returns the JSON document in a model reply: the whole reply
// when it parses, otherwise the first ```json fenced block.
func extractJSON(reply string) (json.RawMessage, *apperrors.ProcessingError) {
	if json.Valid([]byte(reply)) {
		return json.RawMessage(strings.TrimSpace(reply)), nil
	}

	_, after, found := strings.Cut(reply, jsonFence)
	if !found {
		return nil, apperrors.NewParseFailureError("Could not parse JSON from response", nil)
	}
	block, _, _ := strings.Cut(after, "```")
	block = strings.TrimSpace(block)

	var probe interface{}
	if err := json.Unmarshal([]byte(block), &probe); err != nil {
		return nil, apperrors.NewParseFailureError("Could not parse JSON from response", err)
	}
	return json.RawMessage(block), nil
}
