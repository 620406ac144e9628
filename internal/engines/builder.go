/**
 * Engine builder - turns configuration into runnable engine instances
 *
 * Back-end clients are created once per Builder and shared by every
 * instance that talks to the same service.
 */

package engines

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adverant/nexus/docextract/internal/clients"
	"github.com/adverant/nexus/docextract/internal/config"
	"github.com/adverant/nexus/docextract/internal/logging"
	"github.com/adverant/nexus/docextract/internal/ner"
	"github.com/adverant/nexus/docextract/internal/ocr"
	"github.com/adverant/nexus/docextract/internal/pdf"
	"github.com/adverant/nexus/docextract/internal/pipeline"
	"github.com/adverant/nexus/docextract/internal/processor"
)

const suryaModel = "surya"

// healthChecker is any back-end client with a liveness probe
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Builder creates engines from configuration
type Builder struct {
	cfg      *config.Config
	pdf      *ocr.PDFRunner
	cache    ocr.ResultCache
	cacheTTL time.Duration

	ollama     *clients.OllamaClient
	openai     *clients.OpenAIClient
	recognizer map[string]*clients.RecognizerClient
	tagger     *clients.TaggerClient

	// back-ends used by built engines, by service name
	used map[string]healthChecker

	logger *logging.Logger
}

// NewBuilder creates a builder. cache may be nil to disable result caching.
func NewBuilder(cfg *config.Config, cache ocr.ResultCache, cacheTTL time.Duration) (*Builder, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	b := &Builder{
		cfg:        cfg,
		pdf:        ocr.NewPDFRunner(pdf.NewTextLayer(), pdf.NewRasterizer(cfg.TempDir, cfg.PDFDPI)),
		cache:      cache,
		cacheTTL:   cacheTTL,
		recognizer: make(map[string]*clients.RecognizerClient),
		used:       make(map[string]healthChecker),
		logger:     logging.NewLogger("EngineBuilder"),
	}
	if hc, ok := cache.(healthChecker); ok {
		b.used["cache"] = hc
	}
	return b, nil
}

// Instances builds one instance per configured engine, in order
func (b *Builder) Instances() ([]processor.Instance, error) {
	specs, err := config.ParseEngineSpecs(b.cfg.Engines)
	if err != nil {
		return nil, err
	}

	instances := make([]processor.Instance, 0, len(specs))
	for _, spec := range specs {
		engine, err := b.engine(spec)
		if err != nil {
			return nil, fmt.Errorf("engine %s: %w", spec.ID, err)
		}
		if b.cache != nil {
			engine = ocr.NewCachedEngine(spec.ID, engine, b.cache, b.cacheTTL)
		}
		instances = append(instances, processor.Instance{ID: spec.ID, Engine: engine})
		b.logger.Info("Engine ready", "id", spec.ID, "engine", spec.Name, "cached", b.cache != nil)
	}
	return instances, nil
}

func (b *Builder) engine(spec config.EngineSpec) (ocr.Engine, error) {
	languages := spec.Languages
	if len(languages) == 0 {
		languages = b.cfg.Languages
	}

	switch spec.Name {
	case config.EngineTesseract:
		return ocr.NewTesseractEngine(ocr.TesseractConfig{
			Languages:      languages,
			TessdataPrefix: b.cfg.TessdataPrefix,
		}, b.pdf), nil
	case config.EngineEasyOCR:
		return ocr.NewRecognizerEngine(spec.Name, b.recognizerFor(spec.Name, b.cfg.EasyOCRURL), languages, b.pdf), nil
	case config.EnginePaddleOCR:
		return ocr.NewRecognizerEngine(spec.Name, b.recognizerFor(spec.Name, b.cfg.PaddleOCRURL), languages, b.pdf), nil
	case config.EngineSurya:
		client := b.recognizerFor(spec.Name, b.cfg.SuryaURL)
		return ocr.NewDetectReadEngine(ocr.DetectReadConfig{
			Name:      spec.Name,
			Model:     suryaModel,
			Languages: languages,
		}, client, client, b.pdf), nil
	case config.EngineOllama:
		return ocr.NewOllamaEngine(b.cfg.OllamaDefaultModel, b.ollamaClient(), b.pdf), nil
	case config.EngineOpenAI:
		if b.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return ocr.NewOpenAIEngine(b.cfg.OpenAIModel, b.openAIClient(), b.pdf), nil
	}
	return nil, fmt.Errorf("unknown engine %q", spec.Name)
}

// NER names accepted by NEREngine
const (
	NEROpenAI = "openai"
	NEROllama = "ollama"
	NERTagger = "spacy"
)

// NEREngine builds the named NER engine
func (b *Builder) NEREngine(name string) (ner.Engine, error) {
	switch name {
	case NEROpenAI:
		if b.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the %s NER engine", name)
		}
		return ner.NewOpenAIEngine(b.cfg.OpenAIModel, b.openAIClient()), nil
	case NEROllama:
		return ner.NewOllamaEngine(b.cfg.OllamaNERModel, b.ollamaClient()), nil
	case NERTagger:
		return ner.NewTaggerEngine(b.taggerClient()), nil
	}
	return nil, fmt.Errorf("unknown NER engine %q (want %s, %s or %s)", name, NEROpenAI, NEROllama, NERTagger)
}

// EntityExtractor builds the enhanced pipeline's extractor over the tagger
func (b *Builder) EntityExtractor() *pipeline.EntityExtractor {
	return pipeline.NewEntityExtractor(b.taggerClient())
}

// CheckHealth probes every back-end the built engines use. Failures are
// logged as warnings; the engines stay usable and report their own errors.
func (b *Builder) CheckHealth(ctx context.Context) {
	for service, client := range b.used {
		if err := client.HealthCheck(ctx); err != nil {
			b.logger.Warn("Back-end health check failed", "service", service, "error", err)
			continue
		}
		b.logger.Debug("Back-end healthy", "service", service)
	}
}

func (b *Builder) recognizerFor(service, url string) *clients.RecognizerClient {
	if c, ok := b.recognizer[service]; ok {
		return c
	}
	c := clients.NewRecognizerClient(service, url, b.cfg.RequestTimeout)
	b.recognizer[service] = c
	b.used[service] = c
	return c
}

func (b *Builder) ollamaClient() *clients.OllamaClient {
	if b.ollama == nil {
		b.ollama = clients.NewOllamaClient(b.cfg.OllamaBaseURL, b.cfg.RequestTimeout)
		b.used["ollama"] = b.ollama
	}
	return b.ollama
}

func (b *Builder) openAIClient() *clients.OpenAIClient {
	if b.openai == nil {
		b.openai = clients.NewOpenAIClient(b.cfg.OpenAIBaseURL, b.cfg.OpenAIAPIKey, b.cfg.RequestTimeout)
	}
	return b.openai
}

func (b *Builder) taggerClient() *clients.TaggerClient {
	if b.tagger == nil {
		b.tagger = clients.NewTaggerClient(b.cfg.TaggerURL, b.cfg.RequestTimeout)
		b.used["tagger"] = b.tagger
	}
	return b.tagger
}
