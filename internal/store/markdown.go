package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"newsingest/internal/entity"
)

const slugMaxLen = 50

var articleTemplate = template.Must(template.New("article.md").Parse(`---
oid: {{.OID}}
aid: {{.AID}}
title: {{.Title}}
url: {{.URL}}
category: {{.Category}}
{{- if .Publisher}}
publisher: {{.Publisher}}
{{- end}}
{{- if .Author}}
author: {{.Author}}
{{- end}}
{{- if .PublishedAt}}
published_at: {{.PublishedAt}}
{{- end}}
crawled_at: {{.CrawledAt}}
{{- if .ContentHash}}
content_hash: {{.ContentHash}}
{{- end}}
---

# {{.Title}}

{{.Content}}
`))

// articleTemplateData mirrors original_source/src/storage/markdown.rs's
// ArticleTemplateData: the same fields as entity.Article, pre-formatted to
// strings so the template has no formatting logic of its own.
type articleTemplateData struct {
	OID, AID, Title, URL, Category  string
	Publisher, Author               string
	PublishedAt, CrawledAt          string
	ContentHash                     string
	Content                         string
}

func toTemplateData(a *entity.Article) articleTemplateData {
	d := articleTemplateData{
		OID:         a.OID,
		AID:         a.AID,
		Title:       a.Title,
		URL:         a.URL,
		Category:    a.Category.String(),
		Publisher:   a.Publisher,
		Author:      a.Author,
		CrawledAt:   a.CrawledAt.UTC().Format(time.RFC3339),
		ContentHash: a.ContentHash,
		Content:     a.Content,
	}
	if a.PublishedAt != nil {
		d.PublishedAt = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	return d
}

// FileName returns the article's markdown filename,
// "{oid}_{aid}_{slug(title,50)}.md", per spec §4.4.
func FileName(a *entity.Article) string {
	return fmt.Sprintf("%s_%s_%s.md", a.OID, a.AID, Slug(a.Title, slugMaxLen))
}

// MarkdownWriter renders articles to markdown files under OutputDir.
type MarkdownWriter struct {
	OutputDir    string
	SkipExisting bool
}

// NewMarkdownWriter creates a MarkdownWriter rooted at outputDir.
func NewMarkdownWriter(outputDir string, skipExisting bool) *MarkdownWriter {
	return &MarkdownWriter{OutputDir: outputDir, SkipExisting: skipExisting}
}

// Write renders a and atomically writes it to OutputDir, returning the
// final file path. If SkipExisting is set and the target file already
// exists, Write is a no-op and returns the existing path with wrote=false.
func (w *MarkdownWriter) Write(a *entity.Article) (path string, wrote bool, err error) {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return "", false, fmt.Errorf("store: create output dir: %w", err)
	}

	path = filepath.Join(w.OutputDir, FileName(a))
	if w.SkipExisting {
		if _, statErr := os.Stat(path); statErr == nil {
			return path, false, nil
		}
	}

	var buf []byte
	buf, err = renderArticle(a)
	if err != nil {
		return "", false, err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf, 0o644); err != nil {
		return "", false, fmt.Errorf("store: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", false, fmt.Errorf("store: rename temp file: %w", err)
	}
	return path, true, nil
}

func renderArticle(a *entity.Article) ([]byte, error) {
	var buf bytes.Buffer
	if err := articleTemplate.Execute(&buf, toTemplateData(a)); err != nil {
		return nil, fmt.Errorf("store: render template: %w", err)
	}
	return buf.Bytes(), nil
}
