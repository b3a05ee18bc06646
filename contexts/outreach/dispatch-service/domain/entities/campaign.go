package entities

import (
	"strings"
	"time"

	"herald/contexts/outreach/dispatch-service/domain/policy"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Progress is the live aggregate an operator polls while a campaign runs.
// It is overwritten as a whole record on every flush.
type Progress struct {
	Sent               int    `json:"sent"`
	Failed             int    `json:"failed"`
	Total              int    `json:"total"`
	DuplicatesExcluded int    `json:"duplicates_excluded"`
	OriginalCount      int    `json:"original_count"`
	Error              string `json:"error,omitempty"`
}

type Campaign struct {
	CampaignID      string
	TeamID          string
	Name            string
	Status          CampaignStatus
	TargetGroups    []string
	MessageTemplate string
	SessionIDs      []string
	Config          *policy.Config
	Progress        Progress
	ScheduledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// CanStart reports whether a dispatch run may begin. A running campaign must
// not be started twice and a completed one is final; failed campaigns may be
// restarted as the retry affordance.
func (c Campaign) CanStart() bool {
	return c.Status != CampaignStatusRunning && c.Status != CampaignStatusCompleted
}

func (c Campaign) ValidateBasics() bool {
	name := strings.TrimSpace(c.Name)
	template := strings.TrimSpace(c.MessageTemplate)
	return name != "" &&
		len(name) <= 200 &&
		template != "" &&
		len(template) <= 4096 &&
		len(c.TargetGroups) > 0
}

func IsSupportedCampaignStatus(value CampaignStatus) bool {
	switch value {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusRunning,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusFailed:
		return true
	default:
		return false
	}
}
