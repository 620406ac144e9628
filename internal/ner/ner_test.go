package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adverant/nexus/docextract/internal/clients"
	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nested object", `{"order": {"id": 7, "to": "Jane"}}`, "order id: 7 order to: Jane"},
		{"key order kept", `{"zeta": 1, "alpha": 2}`, "zeta: 1 alpha: 2"},
		{"list items", `{"items": ["pen", {"sku": "A1"}]}`, "items[0]: pen items[1] sku: A1"},
		{"top-level list", `["a", "b"]`, "0: a 1: b"},
		{"top-level scalar", `"hello"`, "hello"},
		{"literals", `{"paid": true, "note": null, "total": 12.50}`, "paid: true note: null total: 12.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlattenJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FlattenJSON(`{"broken": `)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	raw, perr := extractJSON(` {"person_name": ["Jane"]} `)
	require.Nil(t, perr)
	assert.JSONEq(t, `{"person_name": ["Jane"]}`, string(raw))

	raw, perr = extractJSON("Here you go:\n```json\n{\"date\": [\"2024-01-02\"]}\n```\nanything else?")
	require.Nil(t, perr)
	assert.JSONEq(t, `{"date": ["2024-01-02"]}`, string(raw))

	_, perr = extractJSON("no json here")
	require.NotNil(t, perr)
	assert.Equal(t, apperrors.ErrorParseFailure, perr.Code)
	assert.Equal(t, "Could not parse JSON from response", perr.Text())

	_, perr = extractJSON("```json\n{nope}\n```")
	require.NotNil(t, perr)
	assert.Equal(t, apperrors.ErrorParseFailure, perr.Code)
}

func TestOpenAIEngine(t *testing.T) {
	var got clients.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"id": "c1", "model": "gpt-4o-mini", "choices": [{"index": 0, "message": {"role": "assistant", "content": "`+
			"```json\\n{\\\"organization\\\": [\\\"Acme\\\"]}\\n```"+`"}}]}`)
	}))
	defer server.Close()

	engine := NewOpenAIEngine("gpt-4o-mini", clients.NewOpenAIClient(server.URL, "key", 5*time.Second))
	res := engine.ProcessText(context.Background(), "Acme ships today")

	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, OpenAIEngineName, res.Engine)
	assert.Equal(t, "gpt-4o-mini", res.Model)
	assert.JSONEq(t, `{"organization": ["Acme"]}`, string(res.Entities))
	assert.NotEmpty(t, res.RawResponse)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Acme ships today", got.Messages[1].Content[0].Text)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.3, *got.Temperature)
	assert.Equal(t, 1000, got.MaxTokens)
}

func TestOllamaEngine(t *testing.T) {
	reply := `{"person_name": ["Jane"]}`
	var got clients.GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"model": "llama3.2", "response": reply, "done": true})
	}))
	defer server.Close()

	engine := NewOllamaEngine("llama3.2", clients.NewOllamaClient(server.URL, 5*time.Second))

	res := engine.ProcessJSONSchema(context.Background(), `{"customer": {"name": "Jane"}}`)
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, OllamaEngineName, res.Engine)
	assert.JSONEq(t, reply, string(res.Entities))
	assert.Contains(t, got.Prompt, "Text: customer name: Jane")
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 1000, got.Options.NumPredict)

	reply = "I could not find anything"
	res = engine.ProcessText(context.Background(), "nothing")
	require.False(t, res.OK())
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Could not parse JSON from response"}`, string(data))
}

func TestLLMBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	res := NewOllamaEngine("llama3.2", clients.NewOllamaClient(server.URL, 5*time.Second)).
		ProcessText(context.Background(), "text")
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.ErrorBackendFailure, res.Err.Code)
}

type fakeTagger struct {
	resp *clients.TagResponse
	err  error
	text string
}

func (f *fakeTagger) Tag(ctx context.Context, text string) (*clients.TagResponse, error) {
	f.text = text
	return f.resp, f.err
}

func TestTaggerEngine(t *testing.T) {
	tagger := &fakeTagger{resp: &clients.TagResponse{Model: "core_web_sm", Ents: []clients.Span{
		{Text: "Jane", Label: "PERSON"},
		{Text: "Acme", Label: "ORG"},
		{Text: "Monday", Label: "DATE"},
		{Text: "$12", Label: "MONEY"},
		{Text: "3", Label: "CARDINAL"},
		{Text: "whatever", Label: "WORK_OF_ART"},
	}}}
	engine := NewTaggerEngine(tagger)

	res := engine.ProcessText(context.Background(), "Jane (jane@acme.io) ordered 3 pens Monday, call 6591234567. Ref 12345.")
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, TaggerEngineName, res.Engine)
	assert.Equal(t, "core_web_sm", res.Model)

	var entities map[string][]string
	require.NoError(t, json.Unmarshal(res.Entities, &entities))
	assert.Equal(t, map[string][]string{
		"person":       {"Jane"},
		"organization": {"Acme"},
		"date":         {"Monday"},
		"money":        {"$12"},
		"quantity":     {"3"},
		"email":        {"jane@acme.io"},
		"phone":        {"6591234567"},
	}, entities)
}

func TestTaggerEngineJSONInput(t *testing.T) {
	tagger := &fakeTagger{resp: &clients.TagResponse{Model: "m"}}
	engine := NewTaggerEngine(tagger)

	res := engine.ProcessJSONSchema(context.Background(), `{"a": {"b": 1}}`)
	require.True(t, res.OK())
	assert.Equal(t, "a b: 1", tagger.text)
	assert.JSONEq(t, `{}`, string(res.Entities))

	res = engine.ProcessJSONSchema(context.Background(), `{"a": `)
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.ErrorParseFailure, res.Err.Code)
	assert.Contains(t, res.Err.Text(), "Invalid JSON input: ")

	tagger.err = fmt.Errorf("tagger offline")
	res = engine.ProcessText(context.Background(), "x")
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.ErrorBackendFailure, res.Err.Code)
}
