package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsingest/internal/entity"
)

func sampleArticle() *entity.Article {
	return &entity.Article{
		OID:         "001",
		AID:         "0014123456",
		Title:       "테스트 기사",
		Content:     "본문입니다",
		URL:         "https://n.news.naver.com/mnews/article/001/0014123456",
		Category:    entity.Society,
		CrawledAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ContentHash: entity.ComputeContentHash("본문입니다"),
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello_world"},
		{"Multi   Space", "multi_space"},
		{"Punctuation! @#$ Test", "punctuation_test"},
	}
	for _, c := range cases {
		if got := Slug(c.title, 50); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestFileName(t *testing.T) {
	a := sampleArticle()
	name := FileName(a)
	if !strings.HasPrefix(name, "001_0014123456_") {
		t.Errorf("unexpected filename: %q", name)
	}
	if !strings.HasSuffix(name, ".md") {
		t.Errorf("expected .md suffix: %q", name)
	}
}

func TestMarkdownWriter_WriteAndSkipExisting(t *testing.T) {
	dir := t.TempDir()
	w := NewMarkdownWriter(dir, true)
	a := sampleArticle()

	path, wrote, err := w.Write(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wrote {
		t.Fatal("expected first write to report wrote=true")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.Base(path)+".tmp")); err == nil {
		t.Error("expected .tmp sibling to be removed by rename")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	text := string(contents)
	if !strings.HasPrefix(text, "---\n") {
		t.Error("expected YAML front matter delimiter")
	}
	if !strings.Contains(text, "본문입니다") {
		t.Error("expected body content in rendered file")
	}

	_, wrote, err = w.Write(a)
	if err != nil {
		t.Fatalf("unexpected error on second write: %v", err)
	}
	if wrote {
		t.Error("expected skip_existing to suppress the second write")
	}
}

func TestMarkdownWriter_OverwritesWhenSkipExistingFalse(t *testing.T) {
	dir := t.TempDir()
	w := NewMarkdownWriter(dir, false)
	a := sampleArticle()

	if _, _, err := w.Write(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, wrote, err := w.Write(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wrote {
		t.Error("expected overwrite when SkipExisting is false")
	}
}
