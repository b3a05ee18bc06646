package entities

import "time"

type ResultStatus string

const (
	ResultStatusSent   ResultStatus = "sent"
	ResultStatusFailed ResultStatus = "failed"
)

// DeliveryResult records one send attempt for one (campaign, recipient,
// session) triple. Append-only.
type DeliveryResult struct {
	ResultID       string
	CampaignID     string
	SessionID      string
	TargetUserID   int64
	TargetUsername string
	Status         ResultStatus
	ErrorMessage   string
	SentAt         time.Time
}
