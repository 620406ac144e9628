/**
 * Storage Manager for docextract
 *
 * Owns the two places results go: JSON files under the output directory and,
 * when configured, the Redis recognition cache.
 */

package storage

import (
	"fmt"
	"time"

	"github.com/adverant/nexus/docextract/internal/logging"
)

// StorageManager coordinates the result writer and the optional cache
type StorageManager struct {
	writer   *JSONWriter
	cache    *RedisCache
	cacheTTL time.Duration
	logger   *logging.Logger
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	OutputDir string
	RedisURL  string // empty disables the cache
	CacheTTL  time.Duration
}

// NewStorageManager creates a new storage manager
func NewStorageManager(cfg StorageConfig) (*StorageManager, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	m := &StorageManager{
		writer:   NewJSONWriter(cfg.OutputDir),
		cacheTTL: cfg.CacheTTL,
		logger:   logging.NewLogger("StorageManager"),
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(cfg.RedisURL, "")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize result cache: %w", err)
		}
		m.cache = cache
		m.logger.Info("Result cache enabled", "ttl", cfg.CacheTTL.String())
	}

	return m, nil
}

// Writer returns the JSON result writer
func (m *StorageManager) Writer() *JSONWriter {
	return m.writer
}

// Cache returns the result cache, or nil when caching is disabled
func (m *StorageManager) Cache() *RedisCache {
	return m.cache
}

// CacheTTL returns how long cached results live
func (m *StorageManager) CacheTTL() time.Duration {
	return m.cacheTTL
}

// Close releases the cache connection
func (m *StorageManager) Close() error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Close()
}
