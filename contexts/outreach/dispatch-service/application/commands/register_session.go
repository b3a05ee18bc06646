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

type RegisterSessionCommand struct {
	TeamID      string
	Label       string
	Credentials string
}

type RegisterSessionUseCase struct {
	Sessions    ports.SessionRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc RegisterSessionUseCase) Execute(ctx context.Context, cmd RegisterSessionCommand) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)

	teamID := strings.TrimSpace(cmd.TeamID)
	label := strings.TrimSpace(cmd.Label)
	if teamID == "" || label == "" || strings.TrimSpace(cmd.Credentials) == "" {
		return entities.Session{}, domainerrors.ErrInvalidSessionInput
	}

	sessionID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Session{}, err
	}
	now := uc.Clock.Now().UTC()
	session := entities.Session{
		SessionID:   sessionID,
		TeamID:      teamID,
		Label:       label,
		IsActive:    true,
		Credentials: cmd.Credentials,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Sessions.CreateSession(ctx, session); err != nil {
		return entities.Session{}, err
	}

	logger.Info("session registered",
		"event", "session_registered",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"session_id", session.SessionID,
		"team_id", teamID,
	)
	return session, nil
}

type DeactivateSessionCommand struct {
	SessionID string
}

type DeactivateSessionUseCase struct {
	Sessions ports.SessionRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc DeactivateSessionUseCase) Execute(ctx context.Context, cmd DeactivateSessionCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	session, err := uc.Sessions.GetSession(ctx, strings.TrimSpace(cmd.SessionID))
	if err != nil {
		return err
	}
	if !session.IsActive {
		return nil
	}
	session.IsActive = false
	session.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Sessions.UpdateSession(ctx, session); err != nil {
		return err
	}

	logger.Info("session deactivated",
		"event", "session_deactivated",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"session_id", session.SessionID,
	)
	return nil
}
