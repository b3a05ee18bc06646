package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProgressDTO struct {
	Sent               int    `json:"sent"`
	Failed             int    `json:"failed"`
	Total              int    `json:"total"`
	DuplicatesExcluded int    `json:"duplicates_excluded"`
	OriginalCount      int    `json:"original_count"`
	Error              string `json:"error,omitempty"`
}

type CampaignDTO struct {
	CampaignID      string      `json:"campaign_id"`
	TeamID          string      `json:"team_id"`
	Name            string      `json:"name"`
	Status          string      `json:"status"`
	TargetGroups    []string    `json:"target_groups"`
	MessageTemplate string      `json:"message_template"`
	SessionIDs      []string    `json:"session_ids"`
	Progress        ProgressDTO `json:"progress"`
	ScheduledAt     string      `json:"scheduled_at,omitempty"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
	StartedAt       string      `json:"started_at,omitempty"`
	CompletedAt     string      `json:"completed_at,omitempty"`
}

type CreateCampaignRequest struct {
	Name            string          `json:"name"`
	TargetGroups    []string        `json:"target_groups"`
	MessageTemplate string          `json:"message_template"`
	SessionIDs      []string        `json:"session_ids"`
	Config          json.RawMessage `json:"campaign_config,omitempty"`
	ScheduledAt     string          `json:"scheduled_at,omitempty"`
}

type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type GetCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}

type StartCampaignRequest struct {
	SessionIDs []string `json:"session_ids"`
}

type StartCampaignResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
}

type ProgressResponse struct {
	CampaignID string      `json:"campaign_id"`
	Status     string      `json:"status"`
	Progress   ProgressDTO `json:"progress"`
}

type SessionDTO struct {
	SessionID string `json:"session_id"`
	TeamID    string `json:"team_id"`
	Label     string `json:"label"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type RegisterSessionRequest struct {
	Label       string `json:"label"`
	Credentials string `json:"credentials"`
}

type RegisterSessionResponse struct {
	Session SessionDTO `json:"session"`
}

type ListSessionsResponse struct {
	Items []SessionDTO `json:"items"`
}

type MemberPayload struct {
	TelegramUserID int64  `json:"telegram_user_id"`
	Username       string `json:"username,omitempty"`
	AccessHash     int64  `json:"access_hash,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	IsBot          bool   `json:"is_bot,omitempty"`
}

type ImportMembersRequest struct {
	Members []MemberPayload `json:"members"`
}

type ImportMembersResponse struct {
	GroupID  string `json:"group_id"`
	Imported int    `json:"imported"`
}

type ResultDTO struct {
	ResultID       string `json:"result_id"`
	CampaignID     string `json:"campaign_id"`
	SessionID      string `json:"session_id"`
	TargetUserID   int64  `json:"target_user_id"`
	TargetUsername string `json:"target_username,omitempty"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message,omitempty"`
	SentAt         string `json:"sent_at"`
}

type ListResultsResponse struct {
	Items []ResultDTO `json:"items"`
}
