package indexer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"newsingest/internal/entity"
)

// frontMatter mirrors the YAML block internal/store's MarkdownWriter
// renders at the top of every article file.
type frontMatter struct {
	OID         string `yaml:"oid"`
	AID         string `yaml:"aid"`
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	Category    string `yaml:"category"`
	Publisher   string `yaml:"publisher"`
	Author      string `yaml:"author"`
	PublishedAt string `yaml:"published_at"`
	CrawledAt   string `yaml:"crawled_at"`
	ContentHash string `yaml:"content_hash"`
}

// ParseMarkdownFile reads the article file at path and reconstructs the
// IndexDocument it was rendered from (front-matter fields plus the body,
// with embedding left zero-initialized per spec §4.11).
func ParseMarkdownFile(path string) (entity.IndexDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return entity.IndexDocument{}, fmt.Errorf("indexer: read %s: %w", path, err)
	}
	return ParseMarkdown(string(raw))
}

// ParseMarkdown parses the front-matter + body shape written by
// internal/store.MarkdownWriter into an IndexDocument.
func ParseMarkdown(raw string) (entity.IndexDocument, error) {
	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return entity.IndexDocument{}, err
	}

	var parsed frontMatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return entity.IndexDocument{}, fmt.Errorf("indexer: parse front matter: %w", err)
	}

	category, err := entity.ParseCategory(parsed.Category)
	if err != nil {
		return entity.IndexDocument{}, fmt.Errorf("indexer: %w", err)
	}

	doc := entity.IndexDocument{
		ID:        parsed.OID + "_" + parsed.AID,
		OID:       parsed.OID,
		AID:       parsed.AID,
		Title:     parsed.Title,
		Content:   stripHeading(body, parsed.Title),
		Category:  category,
		Publisher: parsed.Publisher,
		Author:    parsed.Author,
		URL:       parsed.URL,
	}

	if parsed.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, parsed.PublishedAt); err == nil {
			doc.PublishedAt = &t
		}
	}
	if parsed.CrawledAt != "" {
		if t, err := time.Parse(time.RFC3339, parsed.CrawledAt); err == nil {
			doc.CrawledAt = t
		}
	}
	return doc, nil
}

func splitFrontMatter(raw string) (fm, body string, err error) {
	const delim = "---"
	if !strings.HasPrefix(raw, delim) {
		return "", "", fmt.Errorf("indexer: missing front matter delimiter")
	}
	rest := raw[len(delim):]
	end := strings.Index(rest, "\n"+delim)
	if end < 0 {
		return "", "", fmt.Errorf("indexer: unterminated front matter")
	}
	return rest[:end], rest[end+len("\n"+delim):], nil
}

// stripHeading removes the "# {title}" heading line and surrounding blank
// lines that internal/store's template adds ahead of the article body.
func stripHeading(body, title string) string {
	body = strings.TrimLeft(body, "\n")
	heading := "# " + title
	if strings.HasPrefix(body, heading) {
		body = strings.TrimPrefix(body, heading)
	}
	return strings.TrimSpace(body)
}
