package indexer

// Checkpoint is the indexer's resumable position within a batch-embed run,
// written atomically (write-temp-then-rename) after every committed batch.
// ProcessedDocIDs is a superset of every id that has ever reached the search
// engine, including ids committed just before a mid-batch crash.
type Checkpoint struct {
	LastProcessedBatch int             `json:"last_processed_batch"`
	TotalSuccess       int             `json:"total_success"`
	TotalFailed        int             `json:"total_failed"`
	ProcessedDocIDs    map[string]bool `json:"processed_doc_ids"`
}

// Seen reports whether id has already been committed to the search engine.
func (c *Checkpoint) Seen(id string) bool {
	if c == nil || c.ProcessedDocIDs == nil {
		return false
	}
	return c.ProcessedDocIDs[id]
}

// MarkSeen records id as committed.
func (c *Checkpoint) MarkSeen(id string) {
	if c.ProcessedDocIDs == nil {
		c.ProcessedDocIDs = make(map[string]bool)
	}
	c.ProcessedDocIDs[id] = true
}
