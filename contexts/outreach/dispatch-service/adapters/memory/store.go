package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	campaigns map[string]entities.Campaign
	sessions  map[string]entities.Session
	members   map[string]entities.Member
	results   []entities.DeliveryResult
	outbox    []outboxRow
}

func NewStore(seed []entities.Campaign) *Store {
	campaigns := make(map[string]entities.Campaign, len(seed))
	for _, item := range seed {
		campaigns[item.CampaignID] = item
	}
	return &Store{
		campaigns: campaigns,
		sessions:  make(map[string]entities.Session),
		members:   make(map[string]entities.Member),
		results:   make([]entities.DeliveryResult, 0),
	}
}

func (s *Store) CreateCampaign(_ context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[campaign.CampaignID]; exists {
		return domainerrors.ErrInvalidCampaignInput
	}
	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) UpdateCampaign(_ context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[campaign.CampaignID]; !exists {
		return domainerrors.ErrCampaignNotFound
	}
	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) UpdateProgress(_ context.Context, campaignID string, progress entities.Progress, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	campaign.Progress = progress
	campaign.UpdatedAt = updatedAt
	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return item, nil
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		if strings.TrimSpace(filter.TeamID) != "" && campaign.TeamID != strings.TrimSpace(filter.TeamID) {
			continue
		}
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListDueScheduled(_ context.Context, now time.Time, limit int) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0)
	for _, campaign := range s.campaigns {
		if campaign.Status != entities.CampaignStatusScheduled {
			continue
		}
		if campaign.ScheduledAt == nil || campaign.ScheduledAt.After(now) {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ScheduledAt.Before(*items[j].ScheduledAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CreateSession(_ context.Context, session entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; exists {
		return domainerrors.ErrInvalidSessionInput
	}
	s.sessions[session.SessionID] = session
	return nil
}

func (s *Store) UpdateSession(_ context.Context, session entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; !exists {
		return domainerrors.ErrSessionNotFound
	}
	s.sessions[session.SessionID] = session
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.sessions[strings.TrimSpace(sessionID)]
	if !exists {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return item, nil
}

func (s *Store) ListSessions(_ context.Context, filter ports.SessionFilter) ([]entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wanted map[string]struct{}
	if len(filter.SessionIDs) > 0 {
		wanted = make(map[string]struct{}, len(filter.SessionIDs))
		for _, id := range filter.SessionIDs {
			wanted[strings.TrimSpace(id)] = struct{}{}
		}
	}

	items := make([]entities.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if wanted != nil {
			if _, ok := wanted[session.SessionID]; !ok {
				continue
			}
		}
		if strings.TrimSpace(filter.TeamID) != "" && session.TeamID != strings.TrimSpace(filter.TeamID) {
			continue
		}
		if filter.ActiveOnly && !session.IsActive {
			continue
		}
		items = append(items, session)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SessionID < items[j].SessionID
	})
	return items, nil
}

func memberKey(groupID string, telegramUserID int64) string {
	return fmt.Sprintf("%s/%d", groupID, telegramUserID)
}

func (s *Store) UpsertMembers(_ context.Context, members []entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, member := range members {
		key := memberKey(member.GroupID, member.TelegramUserID)
		if existing, ok := s.members[key]; ok {
			member.MemberID = existing.MemberID
		}
		s.members[key] = member
	}
	return nil
}

func (s *Store) ListMembers(_ context.Context, filter ports.MemberFilter) ([]entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups map[string]struct{}
	if len(filter.GroupIDs) > 0 {
		groups = make(map[string]struct{}, len(filter.GroupIDs))
		for _, id := range filter.GroupIDs {
			groups[strings.TrimSpace(id)] = struct{}{}
		}
	}

	items := make([]entities.Member, 0)
	for _, member := range s.members {
		if groups != nil {
			if _, ok := groups[member.GroupID]; !ok {
				continue
			}
		}
		if filter.ExcludeBots && member.IsBot {
			continue
		}
		items = append(items, member)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TelegramUserID < items[j].TelegramUserID
	})
	return items, nil
}

func (s *Store) AppendResult(_ context.Context, result entities.DeliveryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, result)
	return nil
}

func (s *Store) ListResults(_ context.Context, campaignID string) ([]entities.DeliveryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.DeliveryResult, 0)
	for _, result := range s.results {
		if result.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, result)
		}
	}
	return items, nil
}

func (s *Store) ListSentTargets(_ context.Context, teamID string, excludeCampaignID string) (ports.SentTargets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targets := ports.SentTargets{
		UserIDs:   make(map[int64]struct{}),
		Usernames: make(map[string]struct{}),
	}
	for _, result := range s.results {
		if result.Status != entities.ResultStatusSent {
			continue
		}
		if result.CampaignID == excludeCampaignID {
			continue
		}
		campaign, ok := s.campaigns[result.CampaignID]
		if !ok || campaign.TeamID != teamID || campaign.Status == entities.CampaignStatusDraft {
			continue
		}
		targets.UserIDs[result.TargetUserID] = struct{}{}
		if result.TargetUsername != "" {
			targets.Usernames[strings.ToLower(result.TargetUsername)] = struct{}{}
		}
	}
	return targets, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, outboxRow{message: ports.OutboxMessage{
		OutboxID:     uuid.NewString(),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
