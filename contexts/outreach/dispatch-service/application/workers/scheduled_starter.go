package workers

import (
	"context"
	"log/slog"
	"time"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/application/commands"
	"herald/contexts/outreach/dispatch-service/ports"
)

// ScheduledStarter sweeps scheduled campaigns whose start time has passed and
// hands each to the start command. A start that fails validation is logged
// and skipped; the sweep continues.
type ScheduledStarter struct {
	Campaigns ports.CampaignRepository
	Start     commands.StartCampaignUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (j ScheduledStarter) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	due, err := j.Campaigns.ListDueScheduled(ctx, now, limit)
	if err != nil {
		logger.Error("scheduled campaign sweep failed",
			"event", "scheduled_campaign_sweep_failed",
			"module", "outreach/dispatch-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	started := 0
	for _, campaign := range due {
		err := j.Start.Execute(ctx, commands.StartCampaignCommand{
			CampaignID: campaign.CampaignID,
			SessionIDs: campaign.SessionIDs,
			Detach:     true,
		})
		if err != nil {
			logger.Warn("scheduled campaign start rejected",
				"event", "scheduled_campaign_start_rejected",
				"module", "outreach/dispatch-service",
				"layer", "worker",
				"campaign_id", campaign.CampaignID,
				"error", err.Error(),
			)
			continue
		}
		started++
	}
	if started > 0 {
		logger.Info("scheduled campaign sweep completed",
			"event", "scheduled_campaign_sweep_completed",
			"module", "outreach/dispatch-service",
			"layer", "worker",
			"started_count", started,
		)
	}
	return nil
}
