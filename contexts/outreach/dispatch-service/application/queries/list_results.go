package queries

import (
	"context"
	"log/slog"
	"strings"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

type ListResultsUseCase struct {
	Results ports.ResultRepository
	Logger  *slog.Logger
}

func (uc ListResultsUseCase) Execute(ctx context.Context, campaignID string) ([]entities.DeliveryResult, error) {
	return uc.Results.ListResults(ctx, strings.TrimSpace(campaignID))
}
