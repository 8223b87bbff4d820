// Package store implements the article store (C4): a markdown file writer
// and a single-writer sqlite metadata store for crawl bookkeeping and
// resumption, per spec §4.4.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"newsingest/internal/entity"
)

const maxFilterChunk = 500

const schemaSQL = `
CREATE TABLE IF NOT EXISTS crawl_metadata (
	id TEXT PRIMARY KEY,
	url TEXT UNIQUE NOT NULL,
	content_hash TEXT,
	crawled_at TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_crawl_metadata_url ON crawl_metadata(url);
CREATE INDEX IF NOT EXISTS idx_crawl_metadata_status ON crawl_metadata(status);
CREATE INDEX IF NOT EXISTS idx_crawl_metadata_content_hash ON crawl_metadata(content_hash);

CREATE TABLE IF NOT EXISTS crawl_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// MetadataStore is the single-writer, WAL-mode sqlite metadata store for
// crawl_metadata and crawl_state. It is adapted from the teacher's
// database/sql query-builder idiom in its own persistence adapters, but
// against modernc.org/sqlite (pure Go, no cgo) instead of a Postgres
// driver, per spec §4.4's "embedded, single-writer, WAL-mode local store"
// requirement.
type MetadataStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path, sets
// WAL journal mode and synchronous=NORMAL, and caps the pool to a single
// connection to keep all writes serialized through one handle.
func Open(path string) (*MetadataStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &MetadataStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *MetadataStore) Close() error {
	return s.db.Close()
}

// IsURLCrawled reports whether url has a crawl_metadata row with
// status='success'.
func (s *MetadataStore) IsURLCrawled(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM crawl_metadata WHERE url = ? AND status = ?`,
		url, string(entity.CrawlSuccess),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: is url crawled: %w", err)
	}
	return n > 0, nil
}

// IsContentDuplicate reports whether any row carries the given content hash.
func (s *MetadataStore) IsContentDuplicate(ctx context.Context, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM crawl_metadata WHERE content_hash = ?`,
		hash,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: is content duplicate: %w", err)
	}
	return n > 0, nil
}

// DerivedFailureID returns the synthetic id used by MarkURLCrawled when the
// caller has no article id yet (a pre-extract failure):
// "fail_" + first 36 hex chars of SHA-256(url).
func DerivedFailureID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "fail_" + hex.EncodeToString(sum[:])[:36]
}

// MarkURLCrawled upserts a crawl_metadata row keyed by id. If id is empty,
// it is derived via DerivedFailureID(url).
func (s *MetadataStore) MarkURLCrawled(ctx context.Context, rec entity.CrawlRecord) error {
	id := rec.ArticleID
	if id == "" {
		id = DerivedFailureID(rec.URL)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_metadata (id, url, content_hash, crawled_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			content_hash = excluded.content_hash,
			crawled_at = excluded.crawled_at,
			status = excluded.status,
			error_message = excluded.error_message
	`, id, rec.URL, rec.ContentHash, rec.CrawledAt.UTC().Format(time.RFC3339), string(rec.Status), rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("store: mark url crawled: %w", err)
	}
	return nil
}

// FilterUncrawled returns the subset of urls with no status='success' row,
// preserving input order. Lookups are chunked at maxFilterChunk params per
// query to stay under sqlite's bound-parameter limit.
func (s *MetadataStore) FilterUncrawled(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	crawled := make(map[string]bool, len(urls))
	for start := 0; start < len(urls); start += maxFilterChunk {
		end := start + maxFilterChunk
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, 0, len(chunk)+1)
		args = append(args, string(entity.CrawlSuccess))
		for _, u := range chunk {
			args = append(args, u)
		}

		rows, err := s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT url FROM crawl_metadata WHERE status = ? AND url IN (%s)`, placeholders),
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("store: filter uncrawled: %w", err)
		}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: filter uncrawled scan: %w", err)
			}
			crawled[u] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: filter uncrawled rows: %w", err)
		}
		rows.Close()
	}

	uncrawled := make([]string, 0, len(urls))
	for _, u := range urls {
		if !crawled[u] {
			uncrawled = append(uncrawled, u)
		}
	}
	return uncrawled, nil
}

// Stats summarizes crawl_metadata row counts by status.
type Stats struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

// GetStats returns row counts by status.
func (s *MetadataStore) GetStats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM crawl_metadata GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("store: get stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("store: get stats scan: %w", err)
		}
		stats.Total += count
		switch entity.CrawlStatus(status) {
		case entity.CrawlSuccess:
			stats.Success = count
		case entity.CrawlFailed:
			stats.Failed = count
		case entity.CrawlSkipped:
			stats.Skipped = count
		}
	}
	return stats, rows.Err()
}

// SaveCheckpoint upserts a crawl_state key/value pair.
func (s *MetadataStore) SaveCheckpoint(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint loads a crawl_state value. ok is false if key is unset.
func (s *MetadataStore) LoadCheckpoint(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM crawl_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: load checkpoint: %w", err)
	}
	return value, true, nil
}
