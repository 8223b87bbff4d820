package cacheadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"newsingest/internal/observability/logging"
	"newsingest/internal/observability/metrics"
)

// RedisCache is a Cache backed by a single Redis instance. Every method
// swallows backend errors per spec §4.12: a failing call logs and is
// reported to the caller as a miss (reads) or silently dropped (writes).
type RedisCache struct {
	client *redis.Client
}

func newRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cacheadapter: parse CACHE_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cacheadapter: ping redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// GetOrComputeEmbedding implements Cache.
func (c *RedisCache) GetOrComputeEmbedding(ctx context.Context, content, model string, compute func() ([]float32, error)) ([]float32, error) {
	key := embeddingKey(content, model)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached cachedEmbedding
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			metrics.RecordCacheOp("embedding", "hit")
			return cached.Vector, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		metrics.RecordCacheOp("embedding", "error")
		slogWarn("embedding cache get failed", err)
	} else {
		metrics.RecordCacheOp("embedding", "miss")
	}

	vector, err := compute()
	if err != nil {
		return nil, err
	}

	if buf, jsonErr := json.Marshal(cachedEmbedding{Vector: vector}); jsonErr == nil {
		if err := c.client.Set(ctx, key, buf, EmbeddingTTL).Err(); err != nil {
			metrics.RecordCacheOp("embedding", "error")
			slogWarn("embedding cache set failed", err)
		}
	}
	return vector, nil
}

// GetSearchResults implements Cache.
func (c *RedisCache) GetSearchResults(ctx context.Context, key string) ([]byte, bool) {
	return c.get(ctx, "search", "results:"+key)
}

// SetSearchResults implements Cache.
func (c *RedisCache) SetSearchResults(ctx context.Context, key string, value []byte) {
	c.set(ctx, "search", "results:"+key, value, SearchResultsTTL)
}

// GetArticleMetadata implements Cache.
func (c *RedisCache) GetArticleMetadata(ctx context.Context, key string) ([]byte, bool) {
	return c.get(ctx, "metadata", "meta:"+key)
}

// SetArticleMetadata implements Cache.
func (c *RedisCache) SetArticleMetadata(ctx context.Context, key string, value []byte) {
	c.set(ctx, "metadata", "meta:"+key, value, MetadataTTL)
}

func (c *RedisCache) get(ctx context.Context, kind, key string) ([]byte, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		metrics.RecordCacheOp(kind, "hit")
		return raw, true
	}
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheOp(kind, "miss")
		return nil, false
	}
	metrics.RecordCacheOp(kind, "error")
	slogWarn(kind+" cache get failed", err)
	return nil, false
}

func (c *RedisCache) set(ctx context.Context, kind, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.RecordCacheOp(kind, "error")
		slogWarn(kind+" cache set failed", err)
	}
}

// Close implements Cache.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func slogWarn(msg string, err error) {
	logging.NewLogger().Warn(msg, "error", err, "component", "cacheadapter")
}
