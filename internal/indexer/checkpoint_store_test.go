package indexer

import (
	"path/filepath"
	"testing"
)

func TestLoadCheckpoint_MissingFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	cp, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.LastProcessedBatch != 0 || len(cp.ProcessedDocIDs) != 0 {
		t.Errorf("expected a fresh checkpoint, got %+v", cp)
	}
}

func TestSaveAndLoadCheckpoint_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	cp := &Checkpoint{LastProcessedBatch: 3, TotalSuccess: 150, TotalFailed: 2}
	cp.MarkSeen("001_0001")
	cp.MarkSeen("002_0002")

	if err := SaveCheckpoint(path, cp); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.LastProcessedBatch != 3 || loaded.TotalSuccess != 150 || loaded.TotalFailed != 2 {
		t.Errorf("unexpected loaded checkpoint: %+v", loaded)
	}
	if !loaded.Seen("001_0001") || !loaded.Seen("002_0002") {
		t.Error("expected both ids to round-trip as seen")
	}
	if loaded.Seen("003_0003") {
		t.Error("unrelated id should not be marked seen")
	}
}

func TestSaveCheckpoint_LeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	cp := &Checkpoint{}

	if err := SaveCheckpoint(path, cp); err != nil {
		t.Fatalf("save: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".checkpoint-*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no leftover temp files, found %v", matches)
	}
}
