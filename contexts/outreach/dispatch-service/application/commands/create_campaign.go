package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/domain/policy"
	"herald/contexts/outreach/dispatch-service/ports"
)

type CreateCampaignCommand struct {
	TeamID          string
	Name            string
	TargetGroups    []string
	MessageTemplate string
	SessionIDs      []string
	Config          *policy.Config
	ScheduledAt     *time.Time
}

type CreateCampaignUseCase struct {
	Campaigns   ports.CampaignRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	campaignID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Campaign{}, err
	}

	status := entities.CampaignStatusDraft
	if cmd.ScheduledAt != nil {
		if !cmd.ScheduledAt.After(now) {
			return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
		}
		status = entities.CampaignStatusScheduled
	}

	campaign := entities.Campaign{
		CampaignID:      campaignID,
		TeamID:          strings.TrimSpace(cmd.TeamID),
		Name:            strings.TrimSpace(cmd.Name),
		Status:          status,
		TargetGroups:    uniqueTrimmed(cmd.TargetGroups),
		MessageTemplate: cmd.MessageTemplate,
		SessionIDs:      uniqueTrimmed(cmd.SessionIDs),
		Config:          cmd.Config,
		ScheduledAt:     cmd.ScheduledAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if campaign.TeamID == "" || !campaign.ValidateBasics() {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}
	if err := uc.Campaigns.CreateCampaign(ctx, campaign); err != nil {
		return entities.Campaign{}, err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"team_id", campaign.TeamID,
		"status", string(campaign.Status),
	)
	return campaign, nil
}
