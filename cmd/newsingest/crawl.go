package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"newsingest/internal/config"
	"newsingest/internal/entity"
	"newsingest/internal/fetch"
	"newsingest/internal/listing"
	"newsingest/internal/pipeline"
	"newsingest/internal/store"
)

func newCrawlCmd(logger *slog.Logger) *cobra.Command {
	var (
		category     string
		maxArticles  int
		articleURL   string
		outputDir    string
		skipExisting bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Start a one-shot crawl of a single category",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := entity.ParseCategory(category)
			if err != nil {
				return configErr(fmt.Errorf("crawl: %w", err))
			}

			cfg := config.LoadWorker()
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			meta, err := store.Open(cfg.MetadataDBPath)
			if err != nil {
				return startupErr(fmt.Errorf("crawl: open metadata store: %w", err))
			}
			defer meta.Close()

			fetcher := fetch.New(fetch.Config{
				RequestsPerSecond: cfg.RateLimitRPS,
				MaxRetries:        cfg.MaxRetries,
				Timeout:           fetch.DefaultConfig().Timeout,
			})
			writer := store.NewMarkdownWriter(cfg.OutputDir, skipExisting)

			items, err := buildCrawlItems(cmd.Context(), fetcher, cat, articleURL, maxArticles)
			if err != nil {
				return runErr(fmt.Errorf("crawl: %w", err))
			}
			if len(items) == 0 {
				logger.Warn("no article urls found for category", "category", cat.String())
				return nil
			}

			pcfg := pipeline.DefaultConfig()
			pcfg.CategoryForCheckpoint = cat.String()
			p := pipeline.New(pcfg, fetcher, writer, meta)

			logger.Info("crawl starting", "category", cat.String(), "items", len(items), "output_dir", cfg.OutputDir)
			stats := p.Run(cmd.Context(), items)
			printCrawlSummary(stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "news category to crawl (required)")
	cmd.Flags().IntVar(&maxArticles, "max-articles", 50, "maximum number of articles to fetch")
	cmd.Flags().StringVar(&articleURL, "url", "", "crawl a single article URL instead of listing the category")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write markdown articles into (default: $OUTPUT_DIR)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip writing markdown for articles that already exist on disk")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

// buildCrawlItems resolves the pipeline.Items a crawl run should process:
// a single item for --url, otherwise the category's current listing
// pages up to max articles.
func buildCrawlItems(ctx context.Context, fetcher *fetch.Fetcher, category entity.NewsCategory, articleURL string, max int) ([]pipeline.Item, error) {
	if articleURL != "" {
		return []pipeline.Item{{URL: articleURL, Category: category, SectionHint: int(category)}}, nil
	}

	urls, err := listing.CollectURLs(ctx, fetcher, category, max)
	if err != nil {
		return nil, fmt.Errorf("list category urls: %w", err)
	}
	items := make([]pipeline.Item, len(urls))
	for i, u := range urls {
		items[i] = pipeline.Item{URL: u, Category: category, SectionHint: int(category), Page: i / 20}
	}
	return items, nil
}

func printCrawlSummary(stats pipeline.Stats) {
	total := stats.Success + stats.Skipped + stats.Failed
	fmt.Printf("\ncrawl summary\n")
	fmt.Printf("  processed: %d\n", total)
	fmt.Printf("  success:   %d\n", stats.Success)
	fmt.Printf("  skipped:   %d\n", stats.Skipped)
	fmt.Printf("  failed:    %d\n", stats.Failed)
}
