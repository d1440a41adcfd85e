package main

import (
	"context"
	"time"

	"github.com/coolviki/paywise/service/scraper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// logProgress logs the run state every interval until ctx is done
func logProgress(ctx context.Context, logger *zap.Logger, coordinator *scraper.Coordinator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := coordinator.Status()
			if !s.IsRunning {
				continue
			}
			logger.Info("scrape progress",
				zap.String("run_id", s.RunID),
				zap.String("current_bank", s.CurrentBank),
				zap.Int("benefits_found", s.BenefitsFound),
				zap.Int("campaigns_found", s.CampaignsFound),
				zap.Int("pending_created", s.PendingCreated),
				zap.Int("errors", len(s.Errors)),
			)
		}
	}
}

func scrapeCommand(flags *rootFlags) *cobra.Command {
	var bank string
	var progress time.Duration

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "extract candidates for every configured bank, or one bank, and stage them for review",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := a.context(cmd)

			if progress > 0 {
				progressCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go logProgress(progressCtx, a.logger, a.coordinator, progress)
			}

			state, err := a.coordinator.Run(ctx, bank)
			if err != nil {
				return err
			}
			return printYAML(state)
		}),
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank code to scrape, all configured banks when empty")
	cmd.Flags().DurationVar(&progress, "progress", 5*time.Second, "interval of progress logs, 0 disables them")
	return cmd
}
