package queries

import (
	"context"
	"log/slog"
	"strings"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return entities.Campaign{}, err
	}
	return campaign, nil
}

// GetProgressUseCase serves the poll endpoint dashboards hit while a
// dispatch is running.
type GetProgressUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

type ProgressView struct {
	Status   entities.CampaignStatus
	Progress entities.Progress
}

func (uc GetProgressUseCase) Execute(ctx context.Context, campaignID string) (ProgressView, error) {
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return ProgressView{}, err
	}
	return ProgressView{Status: campaign.Status, Progress: campaign.Progress}, nil
}
