package indexer

import (
	"testing"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/store"
)

func sampleArticle() *entity.Article {
	published := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return &entity.Article{
		OID:         "001",
		AID:         "0014123456",
		Title:       "테스트 기사",
		Content:     "본문입니다",
		URL:         "https://n.news.naver.com/mnews/article/001/0014123456",
		Category:    entity.Society,
		Publisher:   "연합뉴스",
		Author:      "기자",
		PublishedAt: &published,
		CrawledAt:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		ContentHash: entity.ComputeContentHash("본문입니다"),
	}
}

func TestParseMarkdown_RoundTripsFieldsWrittenByMarkdownWriter(t *testing.T) {
	dir := t.TempDir()
	w := store.NewMarkdownWriter(dir, false)
	a := sampleArticle()

	path, _, err := w.Write(a)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := ParseMarkdownFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.ID != "001_0014123456" {
		t.Errorf("ID = %q, want 001_0014123456", doc.ID)
	}
	if doc.OID != a.OID || doc.AID != a.AID {
		t.Errorf("OID/AID = %q/%q, want %q/%q", doc.OID, doc.AID, a.OID, a.AID)
	}
	if doc.Title != a.Title {
		t.Errorf("Title = %q, want %q", doc.Title, a.Title)
	}
	if doc.Content != a.Content {
		t.Errorf("Content = %q, want %q", doc.Content, a.Content)
	}
	if doc.Category != entity.Society {
		t.Errorf("Category = %v, want Society", doc.Category)
	}
	if doc.Publisher != a.Publisher || doc.Author != a.Author {
		t.Errorf("Publisher/Author = %q/%q, want %q/%q", doc.Publisher, doc.Author, a.Publisher, a.Author)
	}
	if doc.PublishedAt == nil || !doc.PublishedAt.Equal(*a.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", doc.PublishedAt, a.PublishedAt)
	}
	if !doc.CrawledAt.Equal(a.CrawledAt) {
		t.Errorf("CrawledAt = %v, want %v", doc.CrawledAt, a.CrawledAt)
	}
}

func TestParseMarkdown_OmitsOptionalFieldsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	w := store.NewMarkdownWriter(dir, false)
	a := sampleArticle()
	a.Publisher = ""
	a.Author = ""
	a.PublishedAt = nil

	path, _, err := w.Write(a)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := ParseMarkdownFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Publisher != "" || doc.Author != "" || doc.PublishedAt != nil {
		t.Errorf("expected optional fields to be zero, got %+v", doc)
	}
}

func TestParseMarkdown_RejectsMissingFrontMatter(t *testing.T) {
	if _, err := ParseMarkdown("# Title\n\nbody\n"); err == nil {
		t.Error("expected an error for missing front matter delimiter")
	}
}

func TestParseMarkdown_RejectsUnterminatedFrontMatter(t *testing.T) {
	if _, err := ParseMarkdown("---\noid: 1\n"); err == nil {
		t.Error("expected an error for unterminated front matter")
	}
}

func TestParseMarkdown_RejectsUnknownCategory(t *testing.T) {
	raw := "---\noid: 001\naid: 1\ntitle: t\nurl: u\ncategory: not-a-category\ncrawled_at: 2026-01-01T00:00:00Z\n---\n\n# t\n\nbody\n"
	if _, err := ParseMarkdown(raw); err == nil {
		t.Error("expected an error for an unrecognized category")
	}
}
