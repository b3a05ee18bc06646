package commands

import (
	"context"
	"log/slog"
	"strings"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/ports"
)

type PauseCampaignCommand struct {
	CampaignID string
}

// PauseCampaignUseCase flips a running campaign to paused. Workers observe
// the flag cooperatively at the top of their loop; a worker mid-sleep reacts
// only after it wakes up.
type PauseCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc PauseCampaignUseCase) Execute(ctx context.Context, cmd PauseCampaignCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if campaign.Status != entities.CampaignStatusRunning {
		return domainerrors.ErrInvalidStateTransition
	}

	campaign.Status = entities.CampaignStatusPaused
	campaign.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		return err
	}

	logger.Info("campaign paused",
		"event", "campaign_paused",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
	)
	return nil
}
