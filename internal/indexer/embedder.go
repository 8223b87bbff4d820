package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"newsingest/internal/resilience/circuitbreaker"
	"newsingest/internal/resilience/retry"
)

// Embedder calls the external embedding server's batch endpoint, per
// spec §4.11: one document's embedding text per call, carried in a
// single batch request.
type Embedder struct {
	serverURL      string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewEmbedder builds an Embedder against serverURL (expected to expose
// POST {serverURL}/embed/batch).
func NewEmbedder(serverURL string) *Embedder {
	return &Embedder{
		serverURL:      serverURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		circuitBreaker: circuitbreaker.New(circuitbreaker.EmbeddingConfig()),
		retryConfig:    retry.IndexerConfig(),
	}
}

type embedBatchRequest struct {
	Texts []string `json:"texts"`
}

type embedBatchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch requests embeddings for texts, in order, retrying transient
// failures per retry.IndexerConfig and tripping through a circuit
// breaker shared across the indexer's embedding calls.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var embeddings [][]float32
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		cbResult, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doEmbedBatch(ctx, texts)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("embedding server circuit breaker open, request rejected",
					slog.String("service", "embedding-server"))
				return fmt.Errorf("embedding server unavailable: circuit breaker open")
			}
			return err
		}
		embeddings = cbResult.([][]float32)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("indexer: embed batch failed after retries: %w", retryErr)
	}
	return embeddings, nil
}

func (e *Embedder) doEmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedBatchRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	url := e.serverURL + "/embed/batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding server returned %d: %s", resp.StatusCode, raw)
	}

	var parsed embedBatchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal embed response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d embeddings for %d texts", len(parsed.Embeddings), len(texts))
	}
	return parsed.Embeddings, nil
}
