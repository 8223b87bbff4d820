package entity

import "time"

// IndexDocument is the unit the indexer bulk-upserts into the external
// search engine, keyed by ID. Embedding is left zero-initialized until the
// batch embedding step fills it in.
type IndexDocument struct {
	ID          string
	OID         string
	AID         string
	Title       string
	Content     string
	Category    NewsCategory
	Publisher   string
	Author      string
	URL         string
	PublishedAt *time.Time
	CrawledAt   time.Time
	Embedding   []float32
}

// EmbeddingContentChars bounds the content part of the text handed to the
// embedding service for a single document: title plus the first
// EmbeddingContentChars runes of content.
const EmbeddingContentChars = 2000

// EmbeddingText concatenates the title with a bounded content window, the
// same text sent to the embedding server for this document. The window is
// measured in runes so multi-byte Korean text is never split mid-character.
func (d *IndexDocument) EmbeddingText() string {
	runes := []rune(d.Content)
	if len(runes) > EmbeddingContentChars {
		runes = runes[:EmbeddingContentChars]
	}
	return d.Title + "\n" + string(runes)
}
