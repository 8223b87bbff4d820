package entity

import (
	"strings"
	"testing"
)

func TestIndexDocument_EmbeddingText(t *testing.T) {
	doc := &IndexDocument{Title: "제목", Content: "짧은 본문"}
	want := "제목\n짧은 본문"
	if got := doc.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %v, want %v", got, want)
	}
}

func TestIndexDocument_EmbeddingText_TruncatesByRune(t *testing.T) {
	content := strings.Repeat("가", EmbeddingContentChars+500)
	doc := &IndexDocument{Title: "t", Content: content}

	got := doc.EmbeddingText()
	body := strings.TrimPrefix(got, "t\n")
	if runeCount := len([]rune(body)); runeCount != EmbeddingContentChars {
		t.Errorf("embedding body rune count = %d, want %d", runeCount, EmbeddingContentChars)
	}
	if !strings.HasPrefix(got, "t\n") {
		t.Errorf("EmbeddingText() missing title prefix: %v", got)
	}
}
