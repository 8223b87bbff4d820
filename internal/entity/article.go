package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode"
)

// Article is a single ingested news article, keyed by the (oid, aid) pair
// extracted from its canonical URL.
type Article struct {
	OID         string
	AID         string
	Title       string
	Content     string
	URL         string
	Category    NewsCategory
	Publisher   string
	Author      string
	PublishedAt *time.Time
	CrawledAt   time.Time
	ContentHash string
}

// ID returns the canonical string identity "{oid}_{aid}".
func (a *Article) ID() string {
	return a.OID + "_" + a.AID
}

// ComputeContentHash returns the hex-encoded SHA-256 of the article content.
func ComputeContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks the invariants from the data model: oid/aid are non-empty
// ASCII-digit strings, title/content are non-empty, and a set content hash
// matches SHA-256(content).
func (a *Article) Validate() error {
	if !isASCIIDigits(a.OID) {
		return newValidationError("oid", "must be a non-empty ASCII-digit string")
	}
	if !isASCIIDigits(a.AID) {
		return newValidationError("aid", "must be a non-empty ASCII-digit string")
	}
	if a.Title == "" {
		return newValidationError("title", "must be non-empty after sanitation")
	}
	if a.Content == "" {
		return newValidationError("content", "must be non-empty after sanitation")
	}
	if !a.Category.IsValid() {
		return newValidationError("category", "not a member of the closed category set")
	}
	if a.ContentHash != "" && a.ContentHash != ComputeContentHash(a.Content) {
		return newValidationError("content_hash", "does not match SHA-256(content)")
	}
	return nil
}
