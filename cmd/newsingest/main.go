// Command newsingest is the single CLI entry point for the
// distributed news-ingestion core: a one-shot crawl, the batch indexer,
// the coordinator server, a coordinator-attached worker, and the
// operational stats/resume tools, per spec §6.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsingest/internal/observability/logging"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger)
	err := root.ExecuteContext(ctx)

	switch {
	case err == nil:
		os.Exit(0)
	case errors.Is(ctx.Err(), context.Canceled):
		logger.Info("interrupted, shutting down")
		os.Exit(130)
	default:
		var cliErr *cliError
		if errors.As(err, &cliErr) {
			logger.Error("command failed", slog.Any("error", cliErr.Unwrap()), slog.Int("exit_code", cliErr.code))
			os.Exit(cliErr.code)
		}
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(2) // cobra's own flag/usage errors never reach RunE as a cliError
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "newsingest",
		Short:         "Distributed news-ingestion core: crawl, index, and coordinate crawler workers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCrawlCmd(logger),
		newIndexCmd(logger),
		newServeCmd(logger),
		newDistributedCrawlerCmd(logger),
		newStatsCmd(logger),
		newResumeCmd(logger),
	)
	return root
}
