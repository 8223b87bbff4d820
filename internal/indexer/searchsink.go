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

	"newsingest/internal/entity"
	"newsingest/internal/resilience/circuitbreaker"
	"newsingest/internal/resilience/retry"
)

// SearchClient is the interface the indexer driver bulk-upserts
// embedded documents through. The default implementation, SearchSink,
// talks HTTP to an external search engine; internal/indexer/pgvectorsink
// provides an alternate Postgres-backed implementation for local/dev use.
type SearchClient interface {
	BulkUpsert(ctx context.Context, docs []entity.IndexDocument) error
}

// SearchSink bulk-upserts embedded documents into the external search
// engine over HTTP. The search engine itself is an external
// collaborator, so this is a thin client rather than a storage layer.
type SearchSink struct {
	baseURL        string
	index          string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewSearchSink builds a SearchSink posting bulk upserts to
// POST {baseURL}/indices/{index}/documents/_bulk.
func NewSearchSink(baseURL, index string) *SearchSink {
	return &SearchSink{
		baseURL:        baseURL,
		index:          index,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		circuitBreaker: circuitbreaker.New(circuitbreaker.SearchConfig()),
		retryConfig:    retry.IndexerConfig(),
	}
}

type bulkUpsertDocument struct {
	ID          string    `json:"id"`
	OID         string    `json:"oid"`
	AID         string    `json:"aid"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Publisher   string    `json:"publisher,omitempty"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"published_at,omitempty"`
	CrawledAt   time.Time `json:"crawled_at"`
	Embedding   []float32 `json:"embedding"`
}

type bulkUpsertRequest struct {
	Documents []bulkUpsertDocument `json:"documents"`
}

// BulkUpsert keys documents by id, overwriting any prior document with
// the same id, per spec §4.11.
func (s *SearchSink) BulkUpsert(ctx context.Context, docs []entity.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	payload := make([]bulkUpsertDocument, len(docs))
	for i, doc := range docs {
		d := bulkUpsertDocument{
			ID:        doc.ID,
			OID:       doc.OID,
			AID:       doc.AID,
			Title:     doc.Title,
			Content:   doc.Content,
			Category:  doc.Category.String(),
			Publisher: doc.Publisher,
			Author:    doc.Author,
			URL:       doc.URL,
			CrawledAt: doc.CrawledAt,
			Embedding: doc.Embedding,
		}
		if doc.PublishedAt != nil {
			d.PublishedAt = doc.PublishedAt.Format(time.RFC3339)
		}
		payload[i] = d
	}

	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, s.doBulkUpsert(ctx, payload)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("search engine circuit breaker open, request rejected",
					slog.String("service", "search-engine"))
				return fmt.Errorf("search engine unavailable: circuit breaker open")
			}
			return err
		}
		return nil
	})
	if retryErr != nil {
		return fmt.Errorf("indexer: bulk upsert failed after retries: %w", retryErr)
	}
	return nil
}

func (s *SearchSink) doBulkUpsert(ctx context.Context, docs []bulkUpsertDocument) error {
	body, err := json.Marshal(bulkUpsertRequest{Documents: docs})
	if err != nil {
		return fmt.Errorf("marshal bulk upsert request: %w", err)
	}

	url := fmt.Sprintf("%s/indices/%s/documents/_bulk", s.baseURL, s.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build bulk upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read bulk upsert response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("search engine returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}
