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

type MemberInput struct {
	TelegramUserID int64
	Username       string
	AccessHash     int64
	FirstName      string
	LastName       string
	IsBot          bool
}

type ImportMembersCommand struct {
	GroupID string
	Members []MemberInput
}

// ImportMembersUseCase stores an extracted member snapshot for a group.
// Re-imports upsert by (group, telegram user id).
type ImportMembersUseCase struct {
	Members     ports.MemberRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ImportMembersUseCase) Execute(ctx context.Context, cmd ImportMembersCommand) (int, error) {
	logger := application.ResolveLogger(uc.Logger)

	groupID := strings.TrimSpace(cmd.GroupID)
	if groupID == "" || len(cmd.Members) == 0 {
		return 0, domainerrors.ErrInvalidMemberInput
	}

	now := uc.Clock.Now().UTC()
	members := make([]entities.Member, 0, len(cmd.Members))
	for _, input := range cmd.Members {
		if input.TelegramUserID == 0 {
			return 0, domainerrors.ErrInvalidMemberInput
		}
		memberID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return 0, err
		}
		members = append(members, entities.Member{
			MemberID:       memberID,
			GroupID:        groupID,
			TelegramUserID: input.TelegramUserID,
			Username:       strings.TrimSpace(input.Username),
			AccessHash:     input.AccessHash,
			FirstName:      strings.TrimSpace(input.FirstName),
			LastName:       strings.TrimSpace(input.LastName),
			IsBot:          input.IsBot,
			ExtractedAt:    now,
		})
	}
	if err := uc.Members.UpsertMembers(ctx, members); err != nil {
		return 0, err
	}

	logger.Info("group members imported",
		"event", "group_members_imported",
		"module", "outreach/dispatch-service",
		"layer", "application",
		"group_id", groupID,
		"member_count", len(members),
	)
	return len(members), nil
}
