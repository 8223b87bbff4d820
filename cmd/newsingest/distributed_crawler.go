package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"newsingest/internal/config"
	"newsingest/internal/coordclient"
	"newsingest/internal/entity"
	"newsingest/internal/fetch"
	"newsingest/internal/pipeline"
	"newsingest/internal/store"
)

// slotPollInterval governs how often the worker loop checks whether its
// assigned hourly slot has changed.
const slotPollInterval = time.Minute

func newDistributedCrawlerCmd(logger *slog.Logger) *cobra.Command {
	var (
		coordinatorURL string
		instanceID     string
	)

	cmd := &cobra.Command{
		Use:   "distributed-crawler",
		Short: "Run as a coordinator-attached crawler worker, following the assigned hourly schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadWorker()
			if coordinatorURL != "" {
				cfg.CoordinatorURL = coordinatorURL
			}
			if instanceID != "" {
				cfg.InstanceID = instanceID
			}
			if err := cfg.ValidateDistributed(); err != nil {
				return configErr(fmt.Errorf("distributed-crawler: %w", err))
			}

			meta, err := store.Open(cfg.MetadataDBPath)
			if err != nil {
				return startupErr(fmt.Errorf("distributed-crawler: open metadata store: %w", err))
			}
			defer meta.Close()

			client := coordclient.New(coordclient.Config{
				CoordinatorURL:    cfg.CoordinatorURL,
				InstanceID:        entity.CrawlerInstance(cfg.InstanceID),
				EgressIP:          cfg.EgressIP,
				AuthToken:         cfg.CoordinatorAuthToken,
				HeartbeatInterval: cfg.HeartbeatInterval,
				FallbackGrace:     cfg.FallbackGrace,
				Instances:         entity.DefaultInstances,
			})

			if err := client.Register(cmd.Context()); err != nil {
				logger.Warn("initial registration failed, starting in autonomous mode", "error", err)
			}
			go client.Run(cmd.Context())
			defer client.Deregister(context.Background())

			fetcher := fetch.New(fetch.Config{
				RequestsPerSecond: cfg.RateLimitRPS,
				MaxRetries:        cfg.MaxRetries,
				Timeout:           fetch.DefaultConfig().Timeout,
			})
			writer := store.NewMarkdownWriter(cfg.OutputDir, false)

			logger.Info("distributed crawler starting", "instance_id", cfg.InstanceID, "coordinator_url", cfg.CoordinatorURL)
			runWorkerLoop(cmd.Context(), logger, client, fetcher, writer, meta)
			logger.Info("distributed crawler stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&coordinatorURL, "coordinator", "", "coordinator base URL (default: $COORDINATOR_URL)")
	cmd.Flags().StringVar(&instanceID, "instance", "", "this worker's instance id (default: $INSTANCE_ID)")

	return cmd
}

// runWorkerLoop polls the assigned slot every slotPollInterval and drives
// one crawl pass per newly observed slot, until ctx is cancelled.
func runWorkerLoop(ctx context.Context, logger *slog.Logger, client *coordclient.Client, fetcher *fetch.Fetcher, writer *store.MarkdownWriter, meta *store.MetadataStore) {
	var lastHour = -1

	ticker := time.NewTicker(slotPollInterval)
	defer ticker.Stop()

	runSlot := func() {
		slot, autonomous := client.CurrentSlot()
		if slot.Hour == lastHour {
			return
		}
		lastHour = slot.Hour
		if len(slot.Categories) == 0 {
			return
		}

		logger.Info("running assigned slot", "hour", slot.Hour, "categories", len(slot.Categories), "autonomous", autonomous)
		for _, category := range slot.Categories {
			if ctx.Err() != nil {
				return
			}
			items, err := buildCrawlItems(ctx, fetcher, category, "", 0)
			if err != nil {
				logger.Error("failed to list category", "category", category.String(), "error", err)
				continue
			}
			pcfg := pipeline.DefaultConfig()
			pcfg.CategoryForCheckpoint = category.String()
			stats := pipeline.New(pcfg, fetcher, writer, meta).Run(ctx, items)
			logger.Info("category crawl complete", "category", category.String(),
				"success", stats.Success, "skipped", stats.Skipped, "failed", stats.Failed)
		}
	}

	runSlot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runSlot()
		}
	}
}
