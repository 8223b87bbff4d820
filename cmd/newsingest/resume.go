package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"newsingest/internal/indexer"
)

func newResumeCmd(logger *slog.Logger) *cobra.Command {
	var checkpoint string

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Inspect an indexer checkpoint to see where a batch run would resume from",
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, err := indexer.LoadCheckpoint(checkpoint)
			if err != nil {
				return runErr(fmt.Errorf("resume: %w", err))
			}

			fmt.Printf("checkpoint (%s)\n", checkpoint)
			fmt.Printf("  last processed batch: %d\n", cp.LastProcessedBatch)
			fmt.Printf("  total success:        %d\n", cp.TotalSuccess)
			fmt.Printf("  total failed:         %d\n", cp.TotalFailed)
			fmt.Printf("  documents seen:       %d\n", len(cp.ProcessedDocIDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&checkpoint, "checkpoint", "./indexer_checkpoint.json", "path to the indexer checkpoint file")

	return cmd
}
