package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/application/commands"
	"herald/contexts/outreach/dispatch-service/application/queries"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/domain/policy"
	httptransport "herald/contexts/outreach/dispatch-service/transport/http"
)

type Handler struct {
	CreateCampaign    commands.CreateCampaignUseCase
	StartCampaign     commands.StartCampaignUseCase
	PauseCampaign     commands.PauseCampaignUseCase
	RegisterSession   commands.RegisterSessionUseCase
	DeactivateSession commands.DeactivateSessionUseCase
	ImportMembers     commands.ImportMembersUseCase
	GetCampaign       queries.GetCampaignUseCase
	GetProgress       queries.GetProgressUseCase
	ListCampaigns     queries.ListCampaignsUseCase
	ListSessions      queries.ListSessionsUseCase
	ListResults       queries.ListResultsUseCase
	Logger            *slog.Logger
}

// CreateCampaignHandler godoc
// @Summary Create an outreach campaign
// @Description Creates a draft campaign, or a scheduled one when scheduled_at is a future instant.
// @Tags outreach-dispatch
// @Accept json
// @Produce json
// @Param X-Team-Id header string true "Owning team id"
// @Success 201 {object} httptransport.CreateCampaignResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns [post]
func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	teamID string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CreateCampaignResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("create campaign request received",
		"event", "http_create_campaign_received",
		"module", "outreach/dispatch-service",
		"layer", "transport",
		"team_id", teamID,
	)

	scheduledAt, err := parseOptionalTime(req.ScheduledAt)
	if err != nil {
		return httptransport.CreateCampaignResponse{}, domainerrors.ErrInvalidCampaignInput
	}
	var config *policy.Config
	if len(req.Config) > 0 {
		config = &policy.Config{}
		if err := json.Unmarshal(req.Config, config); err != nil {
			return httptransport.CreateCampaignResponse{}, domainerrors.ErrInvalidCampaignInput
		}
	}

	campaign, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		TeamID:          teamID,
		Name:            req.Name,
		TargetGroups:    append([]string(nil), req.TargetGroups...),
		MessageTemplate: req.MessageTemplate,
		SessionIDs:      append([]string(nil), req.SessionIDs...),
		Config:          config,
		ScheduledAt:     scheduledAt,
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{Campaign: mapCampaign(campaign)}, nil
}

// StartCampaignHandler godoc
// @Summary Start dispatching a campaign
// @Description Validates preconditions and launches the dispatch in the background; progress is observed by polling.
// @Tags outreach-dispatch
// @Accept json
// @Produce json
// @Param campaign_id path string true "Campaign id"
// @Success 202 {object} httptransport.StartCampaignResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns/{campaign_id}/start [post]
func (h Handler) StartCampaignHandler(
	ctx context.Context,
	campaignID string,
	req httptransport.StartCampaignRequest,
) (httptransport.StartCampaignResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("start campaign request received",
		"event", "http_start_campaign_received",
		"module", "outreach/dispatch-service",
		"layer", "transport",
		"campaign_id", campaignID,
	)

	err := h.StartCampaign.Execute(ctx, commands.StartCampaignCommand{
		CampaignID: campaignID,
		SessionIDs: append([]string(nil), req.SessionIDs...),
		Detach:     true,
	})
	if err != nil {
		return httptransport.StartCampaignResponse{}, err
	}
	return httptransport.StartCampaignResponse{
		CampaignID: strings.TrimSpace(campaignID),
		Status:     "started",
	}, nil
}

// PauseCampaignHandler godoc
// @Summary Pause a running campaign
// @Description Flips the campaign to paused; workers observe the flag cooperatively and stop.
// @Tags outreach-dispatch
// @Produce json
// @Param campaign_id path string true "Campaign id"
// @Success 200 {object} httptransport.StartCampaignResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns/{campaign_id}/pause [post]
func (h Handler) PauseCampaignHandler(ctx context.Context, campaignID string) error {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("pause campaign request received",
		"event", "http_pause_campaign_received",
		"module", "outreach/dispatch-service",
		"layer", "transport",
		"campaign_id", campaignID,
	)
	return h.PauseCampaign.Execute(ctx, commands.PauseCampaignCommand{CampaignID: campaignID})
}

// GetCampaignHandler godoc
// @Summary Fetch a campaign
// @Tags outreach-dispatch
// @Produce json
// @Param campaign_id path string true "Campaign id"
// @Success 200 {object} httptransport.GetCampaignResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns/{campaign_id} [get]
func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.GetCampaignResponse, error) {
	item, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(item)}, nil
}

// GetProgressHandler godoc
// @Summary Poll live dispatch progress
// @Tags outreach-dispatch
// @Produce json
// @Param campaign_id path string true "Campaign id"
// @Success 200 {object} httptransport.ProgressResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns/{campaign_id}/progress [get]
func (h Handler) GetProgressHandler(ctx context.Context, campaignID string) (httptransport.ProgressResponse, error) {
	view, err := h.GetProgress.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.ProgressResponse{}, err
	}
	return httptransport.ProgressResponse{
		CampaignID: strings.TrimSpace(campaignID),
		Status:     string(view.Status),
		Progress:   mapProgress(view.Progress),
	}, nil
}

// ListCampaignsHandler godoc
// @Summary List campaigns for a team
// @Tags outreach-dispatch
// @Produce json
// @Param X-Team-Id header string true "Owning team id"
// @Param status query string false "Status filter"
// @Success 200 {object} httptransport.ListCampaignsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns [get]
func (h Handler) ListCampaignsHandler(ctx context.Context, teamID string, status string) (httptransport.ListCampaignsResponse, error) {
	items, err := h.ListCampaigns.Execute(ctx, queries.ListCampaignsQuery{
		TeamID: teamID,
		Status: status,
	})
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	result := make([]httptransport.CampaignDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCampaign(item))
	}
	return httptransport.ListCampaignsResponse{Items: result}, nil
}

// RegisterSessionHandler godoc
// @Summary Register a sending session
// @Tags outreach-dispatch
// @Accept json
// @Produce json
// @Param X-Team-Id header string true "Owning team id"
// @Success 201 {object} httptransport.RegisterSessionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/outreach/sessions [post]
func (h Handler) RegisterSessionHandler(
	ctx context.Context,
	teamID string,
	req httptransport.RegisterSessionRequest,
) (httptransport.RegisterSessionResponse, error) {
	session, err := h.RegisterSession.Execute(ctx, commands.RegisterSessionCommand{
		TeamID:      teamID,
		Label:       req.Label,
		Credentials: req.Credentials,
	})
	if err != nil {
		return httptransport.RegisterSessionResponse{}, err
	}
	return httptransport.RegisterSessionResponse{Session: mapSession(session)}, nil
}

// DeactivateSessionHandler godoc
// @Summary Deactivate a sending session
// @Tags outreach-dispatch
// @Param session_id path string true "Session id"
// @Success 204
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/outreach/sessions/{session_id}/deactivate [post]
func (h Handler) DeactivateSessionHandler(ctx context.Context, sessionID string) error {
	return h.DeactivateSession.Execute(ctx, commands.DeactivateSessionCommand{SessionID: sessionID})
}

// ListSessionsHandler godoc
// @Summary List sending sessions for a team
// @Tags outreach-dispatch
// @Produce json
// @Param X-Team-Id header string true "Owning team id"
// @Param active query bool false "Only active sessions"
// @Success 200 {object} httptransport.ListSessionsResponse
// @Router /v1/outreach/sessions [get]
func (h Handler) ListSessionsHandler(ctx context.Context, teamID string, activeOnly bool) (httptransport.ListSessionsResponse, error) {
	items, err := h.ListSessions.Execute(ctx, queries.ListSessionsQuery{
		TeamID:     teamID,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return httptransport.ListSessionsResponse{}, err
	}
	result := make([]httptransport.SessionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapSession(item))
	}
	return httptransport.ListSessionsResponse{Items: result}, nil
}

// ImportMembersHandler godoc
// @Summary Import extracted group members
// @Description Upserts the member snapshot for one group; repeat imports keep stable member identities.
// @Tags outreach-dispatch
// @Accept json
// @Produce json
// @Param group_id path string true "Group id"
// @Success 200 {object} httptransport.ImportMembersResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/outreach/groups/{group_id}/members [post]
func (h Handler) ImportMembersHandler(
	ctx context.Context,
	groupID string,
	req httptransport.ImportMembersRequest,
) (httptransport.ImportMembersResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("import members request received",
		"event", "http_import_members_received",
		"module", "outreach/dispatch-service",
		"layer", "transport",
		"group_id", groupID,
		"member_count", len(req.Members),
	)

	members := make([]commands.MemberInput, 0, len(req.Members))
	for _, item := range req.Members {
		members = append(members, commands.MemberInput{
			TelegramUserID: item.TelegramUserID,
			Username:       item.Username,
			AccessHash:     item.AccessHash,
			FirstName:      item.FirstName,
			LastName:       item.LastName,
			IsBot:          item.IsBot,
		})
	}
	imported, err := h.ImportMembers.Execute(ctx, commands.ImportMembersCommand{
		GroupID: groupID,
		Members: members,
	})
	if err != nil {
		return httptransport.ImportMembersResponse{}, err
	}
	return httptransport.ImportMembersResponse{
		GroupID:  strings.TrimSpace(groupID),
		Imported: imported,
	}, nil
}

// ListResultsHandler godoc
// @Summary List per-recipient delivery results
// @Tags outreach-dispatch
// @Produce json
// @Param campaign_id path string true "Campaign id"
// @Success 200 {object} httptransport.ListResultsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/outreach/campaigns/{campaign_id}/results [get]
func (h Handler) ListResultsHandler(ctx context.Context, campaignID string) (httptransport.ListResultsResponse, error) {
	items, err := h.ListResults.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.ListResultsResponse{}, err
	}
	result := make([]httptransport.ResultDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.ResultDTO{
			ResultID:       item.ResultID,
			CampaignID:     item.CampaignID,
			SessionID:      item.SessionID,
			TargetUserID:   item.TargetUserID,
			TargetUsername: item.TargetUsername,
			Status:         string(item.Status),
			ErrorMessage:   item.ErrorMessage,
			SentAt:         item.SentAt.Format(time.RFC3339),
		})
	}
	return httptransport.ListResultsResponse{Items: result}, nil
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	result := httptransport.CampaignDTO{
		CampaignID:      item.CampaignID,
		TeamID:          item.TeamID,
		Name:            item.Name,
		Status:          string(item.Status),
		TargetGroups:    append([]string(nil), item.TargetGroups...),
		MessageTemplate: item.MessageTemplate,
		SessionIDs:      append([]string(nil), item.SessionIDs...),
		Progress:        mapProgress(item.Progress),
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.Format(time.RFC3339),
	}
	if item.ScheduledAt != nil {
		result.ScheduledAt = item.ScheduledAt.UTC().Format(time.RFC3339)
	}
	if item.StartedAt != nil {
		result.StartedAt = item.StartedAt.UTC().Format(time.RFC3339)
	}
	if item.CompletedAt != nil {
		result.CompletedAt = item.CompletedAt.UTC().Format(time.RFC3339)
	}
	return result
}

func mapProgress(item entities.Progress) httptransport.ProgressDTO {
	return httptransport.ProgressDTO{
		Sent:               item.Sent,
		Failed:             item.Failed,
		Total:              item.Total,
		DuplicatesExcluded: item.DuplicatesExcluded,
		OriginalCount:      item.OriginalCount,
		Error:              item.Error,
	}
}

func mapSession(item entities.Session) httptransport.SessionDTO {
	return httptransport.SessionDTO{
		SessionID: item.SessionID,
		TeamID:    item.TeamID,
		Label:     item.Label,
		IsActive:  item.IsActive,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
}

func parseOptionalTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}
