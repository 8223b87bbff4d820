// Package pgvectorsink provides a Postgres-backed alternate
// implementation of internal/indexer's SearchClient interface, for
// local and development runs where standing up the production search
// engine is overkill. It is grounded on the teacher's own pgvector
// article-embedding repository, adapted from a single-row Upsert to the
// indexer's batch-of-documents shape.
package pgvectorsink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"newsingest/internal/entity"
)

// Sink bulk-upserts IndexDocuments into a Postgres table with a pgvector
// embedding column, keyed by document id.
type Sink struct {
	db    *sql.DB
	table string
}

// ConnectionConfig mirrors the teacher's db.ConnectionConfig pool
// tuning knobs.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConnectionConfig returns conservative pool settings for the
// indexer's occasional batch writes.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Open opens a pgx-backed *sql.DB against dsn and wraps it in a Sink
// writing to the named table.
func Open(dsn, table string, cfg ConnectionConfig) (*Sink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvectorsink: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgvectorsink: ping: %w", err)
	}

	return &Sink{db: db, table: table}, nil
}

// New wraps an already-open *sql.DB, for callers that manage their own
// connection lifecycle (tests, shared pools).
func New(db *sql.DB, table string) *Sink {
	return &Sink{db: db, table: table}
}

// Close closes the underlying connection pool.
func (s *Sink) Close() error {
	return s.db.Close()
}

// BulkUpsert writes each document in its own statement inside a single
// transaction: INSERT ... ON CONFLICT (id) DO UPDATE, matching the
// teacher's per-row upsert idiom rather than a driver-specific COPY path.
func (s *Sink) BulkUpsert(ctx context.Context, docs []entity.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgvectorsink: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
INSERT INTO %s (id, oid, aid, title, content, category, publisher, author, url, published_at, crawled_at, embedding, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	category = EXCLUDED.category,
	publisher = EXCLUDED.publisher,
	author = EXCLUDED.author,
	url = EXCLUDED.url,
	published_at = EXCLUDED.published_at,
	crawled_at = EXCLUDED.crawled_at,
	embedding = EXCLUDED.embedding,
	updated_at = NOW()`, s.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("pgvectorsink: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		vector := pgvector.NewVector(doc.Embedding)
		var publishedAt *time.Time
		if doc.PublishedAt != nil {
			publishedAt = doc.PublishedAt
		}
		if _, err := stmt.ExecContext(ctx,
			doc.ID, doc.OID, doc.AID, doc.Title, doc.Content, doc.Category.String(),
			doc.Publisher, doc.Author, doc.URL, publishedAt, doc.CrawledAt, vector,
		); err != nil {
			return fmt.Errorf("pgvectorsink: upsert %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgvectorsink: commit: %w", err)
	}
	return nil
}

// SearchSimilar returns the ids of the documents whose embeddings are
// closest to query by cosine distance, nearest first, matching the
// teacher's SearchSimilar query shape.
func (s *Sink) SearchSimilar(ctx context.Context, query []float32, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	vector := pgvector.NewVector(query)
	sqlQuery := fmt.Sprintf(`
SELECT id FROM %s
ORDER BY embedding <=> $1
LIMIT $2`, s.table)

	rows, err := s.db.QueryContext(ctx, sqlQuery, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("pgvectorsink: search similar: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgvectorsink: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
