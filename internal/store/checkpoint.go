package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Checkpoint is the worker pipeline's resumable position in a crawl,
// persisted to crawl_state after every N completed items and on graceful
// shutdown (see SavePipelineCheckpoint/LoadPipelineCheckpoint).
type Checkpoint struct {
	LastCategory string `json:"last_category"`
	LastPage     int    `json:"last_page"`
	LastURL      string `json:"last_url"`
}

// pipelineCheckpointKey is the crawl_state key the worker pipeline's
// checkpoint is stored under.
const pipelineCheckpointKey = "pipeline_checkpoint"

// SavePipelineCheckpoint JSON-encodes cp and upserts it into crawl_state.
func (s *MetadataStore) SavePipelineCheckpoint(ctx context.Context, cp Checkpoint) error {
	buf, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("store: marshal checkpoint: %w", err)
	}
	return s.SaveCheckpoint(ctx, pipelineCheckpointKey, string(buf))
}

// LoadPipelineCheckpoint loads and decodes the pipeline checkpoint. ok is
// false if no checkpoint has been saved yet.
func (s *MetadataStore) LoadPipelineCheckpoint(ctx context.Context) (cp Checkpoint, ok bool, err error) {
	raw, ok, err := s.LoadCheckpoint(ctx, pipelineCheckpointKey)
	if err != nil || !ok {
		return Checkpoint{}, ok, err
	}
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("store: unmarshal checkpoint: %w", err)
	}
	return cp, true, nil
}
