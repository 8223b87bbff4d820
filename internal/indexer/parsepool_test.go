package indexer

import (
	"testing"

	"newsingest/internal/entity"
	"newsingest/internal/store"
)

func TestParseFilesConcurrently_ParsesEveryFile(t *testing.T) {
	dir := t.TempDir()
	w := store.NewMarkdownWriter(dir, false)
	for i := 0; i < 5; i++ {
		a := &entity.Article{
			OID: "001", AID: string(rune('0' + i)), Title: "t", Content: "c",
			URL: "https://example.com", Category: entity.IT,
		}
		if _, _, err := w.Write(a); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	paths, err := findMarkdownFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	results := ParseFilesConcurrently(paths)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected parse error for %s: %v", r.Path, r.Err)
		}
	}
}

func TestMaxParseWorkers_BoundedBetween1And8(t *testing.T) {
	n := maxParseWorkers()
	if n < 1 || n > 8 {
		t.Errorf("maxParseWorkers() = %d, want between 1 and 8", n)
	}
}
