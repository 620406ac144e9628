/**
 * Vision LLM engines
 *
 * Both engines send the page image with the same literal-extraction prompt.
 * The reply is kept as opaque text; nothing downstream parses it.
 */

package ocr

import (
	"context"
	"fmt"

	"github.com/adverant/nexus/docextract/internal/clients"
	"github.com/adverant/nexus/docextract/internal/config"
	apperrors "github.com/adverant/nexus/docextract/internal/errors"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// ExtractionPrompt asks a vision model for a verbatim transcription.
const ExtractionPrompt = `Extract all text from this document image exactly as it appears.
Do not interpret, summarize, translate or correct anything.
Keep the reading order of the page and preserve numbers, codes and punctuation literally.
Pay attention to order details (number, date), items and products, dimensions and specifications, customer information, additional services and company information.

Return the result as JSON: {"text": "<all text>", "fields": {"<label>": "<value as printed>"}}`

// Generator is a local vision LLM
type Generator interface {
	GenerateFromImage(ctx context.Context, model, prompt string, image []byte, opts *clients.GenerateOptions) (*clients.GenerateResponse, error)
}

// OllamaEngine extracts text with a local vision model
type OllamaEngine struct {
	model  string
	client Generator
	pdf    *PDFRunner
	logger *logging.Logger
}

// NewOllamaEngine creates an Ollama vision engine
func NewOllamaEngine(model string, client Generator, pdf *PDFRunner) *OllamaEngine {
	return &OllamaEngine{
		model:  model,
		client: client,
		pdf:    pdf,
		logger: logging.NewLogger("OllamaEngine"),
	}
}

func (e *OllamaEngine) Name() string { return config.EngineOllama }

func (e *OllamaEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	data, perr := readInput(e.Name(), path)
	if perr != nil {
		return Failure(e.Name(), perr)
	}

	image, _, err := encodeForUpload(data)
	if err != nil {
		return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path, err))
	}

	resp, err := e.client.GenerateFromImage(ctx, e.model, ExtractionPrompt, image, nil)
	if err != nil {
		e.logger.Error("Ollama extraction failed", "model", e.model, "path", path, "error", err)
		return Failure(e.Name(), apperrors.Wrap(e.Name(), path, err))
	}

	return RecognitionResult{
		Engine: e.Name(),
		Model:  e.model,
		Text:   resp.Response,
	}
}

func (e *OllamaEngine) ProcessPDF(ctx context.Context, path string) DocumentResult {
	return e.pdf.Run(ctx, path, e.Name(), e.model, e.ProcessImage)
}

// ChatCompleter is a hosted chat-completion API
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req *clients.ChatRequest) (*clients.ChatResponse, error)
}

// OpenAIEngine extracts text with a hosted vision model
type OpenAIEngine struct {
	model     string
	maxTokens int
	client    ChatCompleter
	pdf       *PDFRunner
	logger    *logging.Logger
}

// NewOpenAIEngine creates a hosted vision engine
func NewOpenAIEngine(model string, client ChatCompleter, pdf *PDFRunner) *OpenAIEngine {
	return &OpenAIEngine{
		model:     model,
		maxTokens: 4096,
		client:    client,
		pdf:       pdf,
		logger:    logging.NewLogger("OpenAIEngine"),
	}
}

func (e *OpenAIEngine) Name() string { return config.EngineOpenAI }

func (e *OpenAIEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	data, perr := readInput(e.Name(), path)
	if perr != nil {
		return Failure(e.Name(), perr)
	}

	image, mime, err := encodeForUpload(data)
	if err != nil {
		return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path, err))
	}

	resp, err := e.client.ChatCompletion(ctx, &clients.ChatRequest{
		Model: e.model,
		Messages: []clients.ChatMessage{{
			Role: "user",
			Content: []clients.ContentPart{
				clients.TextPart(ExtractionPrompt),
				clients.ImagePart(image, mime),
			},
		}},
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		e.logger.Error("Hosted vision extraction failed", "model", e.model, "path", path, "error", err)
		return Failure(e.Name(), apperrors.Wrap(e.Name(), path, err))
	}

	text, err := resp.Content()
	if err != nil {
		return Failure(e.Name(), apperrors.NewBackendFailureError(e.Name(), path, fmt.Errorf("empty completion: %w", err)))
	}

	return RecognitionResult{
		Engine:      e.Name(),
		Model:       e.model,
		Text:        text,
		RawResponse: resp.Raw,
	}
}

func (e *OpenAIEngine) ProcessPDF(ctx context.Context, path string) DocumentResult {
	return e.pdf.Run(ctx, path, e.Name(), e.model, e.ProcessImage)
}
