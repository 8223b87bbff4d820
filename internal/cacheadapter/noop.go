package cacheadapter

import "context"

// Noop is the null-object Cache used when no cache backend is
// configured, or the configured one is unreachable. Every read is a
// miss; every write does nothing.
type Noop struct{}

// NewNoop creates a Noop cache.
func NewNoop() *Noop { return &Noop{} }

func (n *Noop) GetOrComputeEmbedding(ctx context.Context, content, model string, compute func() ([]float32, error)) ([]float32, error) {
	return compute()
}

func (n *Noop) GetSearchResults(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (n *Noop) SetSearchResults(ctx context.Context, key string, value []byte) {}

func (n *Noop) GetArticleMetadata(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (n *Noop) SetArticleMetadata(ctx context.Context, key string, value []byte) {}

func (n *Noop) Close() error { return nil }
