package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/adverant/nexus/docextract/internal/logging"
)

// ResultCache stores serialized recognition results
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEngine memoizes successful image recognitions of an engine instance,
// keyed by instance identifier and file content. PDFs go straight through.
type CachedEngine struct {
	Engine
	id     string
	cache  ResultCache
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedEngine wraps inner with a result cache
func NewCachedEngine(id string, inner Engine, cache ResultCache, ttl time.Duration) *CachedEngine {
	return &CachedEngine{
		Engine: inner,
		id:     id,
		cache:  cache,
		ttl:    ttl,
		logger: logging.NewLogger("CachedEngine"),
	}
}

func (e *CachedEngine) ProcessImage(ctx context.Context, path string) RecognitionResult {
	data, err := os.ReadFile(path)
	if err != nil {
		// the wrapped engine produces the proper error shape
		return e.Engine.ProcessImage(ctx, path)
	}

	sum := sha256.Sum256(data)
	key := "ocr:" + e.id + ":" + hex.EncodeToString(sum[:])

	if cached, err := e.cache.Get(ctx, key); err == nil {
		var res RecognitionResult
		if err := json.Unmarshal(cached, &res); err == nil && res.OK() {
			e.logger.Debug("Cache hit", "engine", e.id, "path", path)
			return res
		}
	}

	res := e.Engine.ProcessImage(ctx, path)
	if !res.OK() {
		return res
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return res
	}
	if err := e.cache.Set(ctx, key, payload, e.ttl); err != nil {
		e.logger.Warn("Failed to cache result", "engine", e.id, "error", err)
	}
	return res
}
