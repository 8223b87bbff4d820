// Package cacheadapter provides the optional key/value cache (C12) for
// embeddings and search results. Per spec §4.12 the cache is never load
// bearing: every error is logged and swallowed, and a cache that is
// unreachable on startup degrades the system to "always miss" rather
// than blocking it.
package cacheadapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"newsingest/internal/observability/logging"
)

// TTLs for the three cache categories named in spec §4.12: embeddings
// are expensive to recompute and change rarely, search responses go
// stale quickly, article metadata sits in between.
const (
	EmbeddingTTL     = 7 * 24 * time.Hour
	SearchResultsTTL = 5 * time.Minute
	MetadataTTL      = time.Hour
)

// Cache is the interface the indexer and coordinator consume. All
// methods are best-effort: a failing backend reports a miss rather than
// an error, so callers never need cache-specific error handling.
type Cache interface {
	// GetOrComputeEmbedding returns the cached embedding for content
	// under model, computing and storing it via compute on a miss.
	GetOrComputeEmbedding(ctx context.Context, content, model string, compute func() ([]float32, error)) ([]float32, error)

	// GetSearchResults returns the cached bytes for key, and whether
	// they were found.
	GetSearchResults(ctx context.Context, key string) ([]byte, bool)
	// SetSearchResults stores value under key with SearchResultsTTL.
	SetSearchResults(ctx context.Context, key string, value []byte)

	// GetArticleMetadata returns the cached bytes for key, and whether
	// they were found.
	GetArticleMetadata(ctx context.Context, key string) ([]byte, bool)
	// SetArticleMetadata stores value under key with MetadataTTL.
	SetArticleMetadata(ctx context.Context, key string, value []byte)

	// Close releases any resources held by the backend.
	Close() error
}

// embeddingKey derives the embedding cache key from spec §4.12:
// keyed by SHA-256(content), namespaced by model so two models never
// collide on the same content.
func embeddingKey(content, model string) string {
	sum := sha256.Sum256([]byte(content))
	return "embedding:" + model + ":" + hex.EncodeToString(sum[:])
}

type cachedEmbedding struct {
	Vector []float32 `json:"vector"`
}

// New builds a Cache backed by Redis when url is non-empty, otherwise
// the no-op fallback. Per spec §4.12, a Redis connection failure at
// startup degrades to the no-op cache rather than failing the process.
func New(url string) Cache {
	if url == "" {
		return NewNoop()
	}
	redisCache, err := newRedisCache(url)
	if err != nil {
		logging.NewLogger().Warn("cache adapter unavailable at startup, continuing without it",
			"error", err)
		return NewNoop()
	}
	return redisCache
}
