package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsingest/internal/cacheadapter"
	"newsingest/internal/config"
	"newsingest/internal/indexer"
)

func newIndexCmd(logger *slog.Logger) *cobra.Command {
	var (
		input     string
		batchSize int
		force     bool
		since     string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Batch-embed crawled articles and upsert them into the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			icfg := config.LoadIndexer()
			if input != "" {
				icfg.InputDir = input
			}
			if batchSize > 0 {
				icfg.BatchSize = batchSize
			}
			if err := icfg.Validate(); err != nil {
				return configErr(fmt.Errorf("index: %w", err))
			}

			var sinceTime time.Time
			if since != "" {
				t, err := parseSince(since)
				if err != nil {
					return configErr(fmt.Errorf("index: --since: %w", err))
				}
				sinceTime = t
			}

			if force {
				if err := deleteSearchIndex(cmd.Context(), icfg.SearchURL, icfg.SearchIndex); err != nil {
					logger.Warn("failed to delete search index before re-indexing", "error", err)
				}
			}

			wcfg := config.LoadWorker()
			driver := indexer.NewDriver(indexer.Config{
				InputDir:       icfg.InputDir,
				EmbeddingURL:   icfg.EmbeddingServerURL,
				SearchURL:      icfg.SearchURL,
				SearchIndex:    icfg.SearchIndex,
				BatchSize:      icfg.BatchSize,
				CheckpointPath: icfg.CheckpointPath,
				Since:          sinceTime,
			}).WithCache(cacheadapter.New(wcfg.CacheURL))

			logger.Info("index run starting", "input_dir", icfg.InputDir, "batch_size", icfg.BatchSize)
			if err := driver.Run(cmd.Context()); err != nil {
				return runErr(fmt.Errorf("index: %w", err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "directory of markdown articles to index (default: $OUTPUT_DIR)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "number of documents to embed/upsert per batch")
	cmd.Flags().BoolVar(&force, "force", false, "issue a best-effort DELETE of the search index before running (no explicit re-create call is made)")
	cmd.Flags().StringVar(&since, "since", "", "only index markdown files modified at or after this time (YYYY-MM-DD[THH:MM:SS])")

	return cmd
}

// parseSince accepts the two --since forms spec §6 names: a bare date or
// a full timestamp.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, want YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS", s)
}

// deleteSearchIndex issues a best-effort DELETE against the search
// engine's index endpoint; failure is logged but never fatal, since a
// missing index is equivalent to one that never existed.
func deleteSearchIndex(ctx context.Context, baseURL, index string) error {
	url := strings.TrimRight(baseURL, "/") + "/" + index
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete index %q: unexpected status %d", index, resp.StatusCode)
	}
	return nil
}
