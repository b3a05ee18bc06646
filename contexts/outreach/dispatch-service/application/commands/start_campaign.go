package commands

import (
	"context"
	"log/slog"
	"strings"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/application/dispatch"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/ports"
)

type StartCampaignCommand struct {
	CampaignID string
	SessionIDs []string
	// Detach runs the dispatch in a background goroutine; the command
	// returns once preconditions pass. Synchronous execution is for tests.
	Detach bool
}

// StartCampaignUseCase validates the trigger and hands the campaign to the
// dispatch engine. Validation fails closed: if any requested session is
// missing, inactive or foreign, nothing starts.
type StartCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Sessions  ports.SessionRepository
	Engine    *dispatch.Engine
	Logger    *slog.Logger
}

func (uc StartCampaignUseCase) Execute(ctx context.Context, cmd StartCampaignCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if !campaign.CanStart() {
		if campaign.Status == entities.CampaignStatusCompleted {
			return domainerrors.ErrCampaignCompleted
		}
		return domainerrors.ErrCampaignAlreadyRunning
	}

	requested := uniqueTrimmed(cmd.SessionIDs)
	if len(requested) == 0 {
		return domainerrors.ErrInvalidCampaignInput
	}
	sessions, err := uc.Sessions.ListSessions(ctx, ports.SessionFilter{
		SessionIDs: requested,
		TeamID:     campaign.TeamID,
		ActiveOnly: true,
	})
	if err != nil {
		return err
	}
	if len(sessions) != len(requested) {
		return domainerrors.ErrSessionsUnavailable
	}

	logger.Info("campaign start accepted",
		"event", "campaign_start_accepted",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"session_count", len(sessions),
		"detached", cmd.Detach,
	)

	if cmd.Detach {
		go uc.Engine.Run(context.WithoutCancel(ctx), campaign, sessions)
		return nil
	}
	uc.Engine.Run(ctx, campaign, sessions)
	return nil
}

func uniqueTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
