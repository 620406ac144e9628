package ner

import (
	"context"
	"fmt"

	"github.com/adverant/nexus/docextract/internal/clients"
	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
)

const (
	llmTemperature = 0.3
	llmMaxTokens   = 1000
)

const openAISystemPrompt = "You are a Named Entity Recognition expert. Extract all entities from the text and format them in a JSON schema. " +
	"Include categories like: person_name, organization, location, date, contact_info, product, quantity, price, " +
	"and any other relevant entities found in the text."

const ollamaPromptTemplate = `You are a Named Entity Recognition expert. Extract all entities from the text below and format them in a valid JSON object. Follow these rules strictly:
1. Use double quotes for all property names and string values
2. Ensure all JSON syntax is valid
3. Keep the structure flat and simple
4. Group similar entities together

Extract these types of entities:
- order_number: Order reference numbers
- date: Any dates or time periods
- person_name: Names of people
- organization: Company or business names
- location: Addresses, cities, countries
- contact_info: Phone numbers, emails, websites
- product: Product names and descriptions
- quantity: Numerical quantities
- price: Monetary values and prices

Text: %s

Respond with a valid JSON object containing the extracted entities. Only output the JSON, nothing else.`

// ChatCompleter is a hosted chat-completion API
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req *clients.ChatRequest) (*clients.ChatResponse, error)
}

// OpenAIEngine extracts entities with a hosted LLM
type OpenAIEngine struct {
	model  string
	client ChatCompleter
	logger *logging.Logger
}

// NewOpenAIEngine creates a hosted-LLM NER engine
func NewOpenAIEngine(model string, client ChatCompleter) *OpenAIEngine {
	return &OpenAIEngine{
		model:  model,
		client: client,
		logger: logging.NewLogger("OpenAINER"),
	}
}

func (e *OpenAIEngine) Name() string { return OpenAIEngineName }

func (e *OpenAIEngine) ProcessText(ctx context.Context, text string) Result {
	temperature := llmTemperature
	resp, err := e.client.ChatCompletion(ctx, &clients.ChatRequest{
		Model: e.model,
		Messages: []clients.ChatMessage{
			{Role: "system", Content: []clients.ContentPart{clients.TextPart(openAISystemPrompt)}},
			{Role: "user", Content: []clients.ContentPart{clients.TextPart(text)}},
		},
		Temperature: &temperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		e.logger.Error("Error processing text with NER", "model", e.model, "error", err)
		return failure(apperrors.Wrap(e.Name(), "", err))
	}

	reply, err := resp.Content()
	if err != nil {
		return failure(apperrors.NewBackendFailureError(e.Name(), "", err))
	}

	entities, perr := extractJSON(reply)
	if perr != nil {
		e.logger.Error("Error processing text with NER", "model", e.model, "error", perr.Text())
		return failure(perr)
	}

	return Result{
		Engine:      e.Name(),
		Model:       e.model,
		Entities:    entities,
		RawResponse: resp.Raw,
	}
}

func (e *OpenAIEngine) ProcessJSONSchema(ctx context.Context, jsonText string) Result {
	return processJSON(ctx, e.logger, jsonText, e.ProcessText)
}

// Generator is a local text LLM
type Generator interface {
	Generate(ctx context.Context, req *clients.GenerateRequest) (*clients.GenerateResponse, error)
}

// OllamaEngine extracts entities with a local LLM
type OllamaEngine struct {
	model  string
	client Generator
	logger *logging.Logger
}

// NewOllamaEngine creates a local-LLM NER engine
func NewOllamaEngine(model string, client Generator) *OllamaEngine {
	return &OllamaEngine{
		model:  model,
		client: client,
		logger: logging.NewLogger("OllamaNER"),
	}
}

func (e *OllamaEngine) Name() string { return OllamaEngineName }

func (e *OllamaEngine) ProcessText(ctx context.Context, text string) Result {
	resp, err := e.client.Generate(ctx, &clients.GenerateRequest{
		Model:  e.model,
		Prompt: fmt.Sprintf(ollamaPromptTemplate, text),
		Options: &clients.GenerateOptions{
			Temperature: llmTemperature,
			NumPredict:  llmMaxTokens,
		},
	})
	if err != nil {
		e.logger.Error("Error processing text with Ollama NER", "model", e.model, "error", err)
		return failure(apperrors.Wrap(e.Name(), "", err))
	}

	entities, perr := extractJSON(resp.Response)
	if perr != nil {
		e.logger.Error("Error processing text with Ollama NER", "model", e.model, "error", perr.Text())
		return failure(perr)
	}

	return Result{
		Engine:      e.Name(),
		Model:       e.model,
		Entities:    entities,
		RawResponse: resp.Raw,
	}
}

func (e *OllamaEngine) ProcessJSONSchema(ctx context.Context, jsonText string) Result {
	return processJSON(ctx, e.logger, jsonText, e.ProcessText)
}
