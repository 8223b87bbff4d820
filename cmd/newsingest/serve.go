package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"newsingest/internal/config"
	"newsingest/internal/coordinator"
	"newsingest/internal/entity"
	"newsingest/internal/registry"
	"newsingest/internal/scheduler"
)

func newServeCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator server that assigns daily crawl schedules to instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadCoordinator()

			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return configErr(fmt.Errorf("serve: invalid timezone %q: %w", cfg.Timezone, err))
			}

			reg := registry.New()
			trig := scheduler.NewTrigger(entity.DefaultInstances, loc)
			if err := trig.Start(); err != nil {
				return startupErr(fmt.Errorf("serve: start schedule trigger: %w", err))
			}
			defer trig.Stop()

			srv := coordinator.NewServer(cfg.BindAddr, reg, trig, entity.DefaultInstances, cfg.AuthToken)
			srv.MarkReady()

			logger.Info("coordinator starting", "addr", cfg.BindAddr, "timezone", cfg.Timezone)
			if err := srv.ListenAndServe(cmd.Context()); err != nil {
				return runErr(fmt.Errorf("serve: %w", err))
			}
			logger.Info("coordinator stopped")
			return nil
		},
	}

	return cmd
}
