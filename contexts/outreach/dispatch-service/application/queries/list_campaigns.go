package queries

import (
	"context"
	"log/slog"
	"strings"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

type ListCampaignsQuery struct {
	TeamID string
	Status string
}

type ListCampaignsUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, query ListCampaignsQuery) ([]entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter := ports.CampaignFilter{
		TeamID: strings.TrimSpace(query.TeamID),
	}
	if strings.TrimSpace(query.Status) != "" {
		filter.Status = entities.CampaignStatus(strings.TrimSpace(query.Status))
	}
	items, err := uc.Campaigns.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, err
	}
	logger.Info("campaigns listed",
		"event", "campaigns_listed",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"count", len(items),
	)
	return items, nil
}

type ListSessionsQuery struct {
	TeamID     string
	ActiveOnly bool
}

type ListSessionsUseCase struct {
	Sessions ports.SessionRepository
	Logger   *slog.Logger
}

func (uc ListSessionsUseCase) Execute(ctx context.Context, query ListSessionsQuery) ([]entities.Session, error) {
	return uc.Sessions.ListSessions(ctx, ports.SessionFilter{
		TeamID:     strings.TrimSpace(query.TeamID),
		ActiveOnly: query.ActiveOnly,
	})
}
