package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"newsingest/internal/store"
)

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print crawl totals recorded in the metadata database",
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := store.Open(database)
			if err != nil {
				return startupErr(fmt.Errorf("stats: open metadata store: %w", err))
			}
			defer meta.Close()

			s, err := meta.GetStats(cmd.Context())
			if err != nil {
				return runErr(fmt.Errorf("stats: %w", err))
			}

			fmt.Printf("crawl stats (%s)\n", database)
			fmt.Printf("  total:   %d\n", s.Total)
			fmt.Printf("  success: %d\n", s.Success)
			fmt.Printf("  failed:  %d\n", s.Failed)
			fmt.Printf("  skipped: %d\n", s.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "./crawl_metadata.db", "path to the metadata database")

	return cmd
}
