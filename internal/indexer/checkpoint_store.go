package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadCheckpoint reads the checkpoint JSON at path. A missing file is not
// an error: it returns a fresh, empty Checkpoint so a first run starts
// clean.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Checkpoint{ProcessedDocIDs: make(map[string]bool)}, nil
		}
		return nil, fmt.Errorf("indexer: read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("indexer: unmarshal checkpoint: %w", err)
	}
	if cp.ProcessedDocIDs == nil {
		cp.ProcessedDocIDs = make(map[string]bool)
	}
	return &cp, nil
}

// SaveCheckpoint JSON-encodes cp and writes it to path atomically: write
// to a sibling temp file, fsync, then rename over the target, so a crash
// mid-write never leaves a truncated checkpoint behind.
func SaveCheckpoint(path string, cp *Checkpoint) error {
	buf, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("indexer: marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("indexer: create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("indexer: write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("indexer: sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("indexer: close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("indexer: rename checkpoint into place: %w", err)
	}
	return nil
}
