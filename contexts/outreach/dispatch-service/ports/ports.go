package ports

import (
	"context"
	"fmt"
	"time"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/internal/shared/events"
)

type CampaignFilter struct {
	TeamID string
	Status entities.CampaignStatus
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign) error
	UpdateCampaign(ctx context.Context, campaign entities.Campaign) error
	// UpdateProgress writes only the progress record and updated_at, so a
	// concurrent status change (a pause command) is never overwritten by a
	// stale snapshot.
	UpdateProgress(ctx context.Context, campaignID string, progress entities.Progress, updatedAt time.Time) error
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]entities.Campaign, error)
}

type SessionFilter struct {
	SessionIDs []string
	TeamID     string
	ActiveOnly bool
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session entities.Session) error
	UpdateSession(ctx context.Context, session entities.Session) error
	GetSession(ctx context.Context, sessionID string) (entities.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]entities.Session, error)
}

type MemberFilter struct {
	GroupIDs    []string
	ExcludeBots bool
}

type MemberRepository interface {
	UpsertMembers(ctx context.Context, members []entities.Member) error
	ListMembers(ctx context.Context, filter MemberFilter) ([]entities.Member, error)
}

// SentTargets is the dedup set built from prior sent results. Usernames are
// stored lowercased.
type SentTargets struct {
	UserIDs   map[int64]struct{}
	Usernames map[string]struct{}
}

type ResultRepository interface {
	AppendResult(ctx context.Context, result entities.DeliveryResult) error
	ListResults(ctx context.Context, campaignID string) ([]entities.DeliveryResult, error)
	// ListSentTargets collects targets already contacted by the team's other
	// non-draft campaigns, excluding excludeCampaignID.
	ListSentTargets(ctx context.Context, teamID string, excludeCampaignID string) (SentTargets, error)
}

// SendError codes as classified by messenger adapters. The dispatch engine
// reacts to the code, never to provider message text.
const (
	SendErrorInvalidTarget = "invalid_target"
	SendErrorFlood         = "flood"
	SendErrorNotMember     = "not_member"
	SendErrorUnauthorized  = "unauthorized"
	SendErrorUnknown       = "unknown"
)

type SendError struct {
	Code    string
	Message string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed (%s): %s", e.Code, e.Message)
}

// Entity is an opaque provider-side handle for a resolved recipient.
type Entity any

type EntityRef struct {
	TelegramUserID int64
	Username       string
	AccessHash     int64
}

// Messenger is an authenticated per-session connection to the provider.
type Messenger interface {
	Resolve(ctx context.Context, ref EntityRef) (Entity, error)
	Send(ctx context.Context, target Entity, message string) error
	Disconnect(ctx context.Context) error
}

// MessengerConnector opens provider connections from stored session credentials.
type MessengerConnector interface {
	Connect(ctx context.Context, session entities.Session) (Messenger, error)
}

type Clock interface {
	Now() time.Time
}

// Sleeper abstracts blocking waits so tests can run dispatch loops without
// real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
