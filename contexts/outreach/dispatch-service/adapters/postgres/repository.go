package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/domain/policy"
	"herald/contexts/outreach/dispatch-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidCampaignInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateCampaign(ctx context.Context, campaign entities.Campaign) error {
	updates, err := campaignUpdatesFromEntity(campaign)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaign.CampaignID)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) UpdateProgress(ctx context.Context, campaignID string, progress entities.Progress, updatedAt time.Time) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Updates(map[string]any{
			"progress":   payload,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{})
	if strings.TrimSpace(filter.TeamID) != "" {
		tx = tx.Where("team_id = ?", strings.TrimSpace(filter.TeamID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return campaignsFromRows(rows)
}

func (r *Repository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]entities.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []campaignModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.CampaignStatusScheduled)).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now.UTC()).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return campaignsFromRows(rows)
}

func (r *Repository) CreateSession(ctx context.Context, session entities.Session) error {
	row := sessionModelFromEntity(session)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidSessionInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateSession(ctx context.Context, session entities.Session) error {
	row := sessionModelFromEntity(session)
	result := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", row.SessionID).
		Updates(map[string]any{
			"team_id":     row.TeamID,
			"label":       row.Label,
			"is_active":   row.IsActive,
			"credentials": row.Credentials,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSessions(ctx context.Context, filter ports.SessionFilter) ([]entities.Session, error) {
	tx := r.db.WithContext(ctx).Model(&sessionModel{})
	if len(filter.SessionIDs) > 0 {
		ids := make([]string, 0, len(filter.SessionIDs))
		for _, id := range filter.SessionIDs {
			ids = append(ids, strings.TrimSpace(id))
		}
		tx = tx.Where("session_id IN ?", ids)
	}
	if strings.TrimSpace(filter.TeamID) != "" {
		tx = tx.Where("team_id = ?", strings.TrimSpace(filter.TeamID))
	}
	if filter.ActiveOnly {
		tx = tx.Where("is_active = TRUE")
	}

	var rows []sessionModel
	if err := tx.Order("session_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Session, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertMembers(ctx context.Context, members []entities.Member) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([]memberModel, 0, len(members))
	for _, member := range members {
		rows = append(rows, memberModelFromEntity(member))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}, {Name: "telegram_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "access_hash", "first_name", "last_name", "is_bot", "extracted_at",
			}),
		}).
		Create(&rows).
		Error
}

func (r *Repository) ListMembers(ctx context.Context, filter ports.MemberFilter) ([]entities.Member, error) {
	tx := r.db.WithContext(ctx).Model(&memberModel{})
	if len(filter.GroupIDs) > 0 {
		tx = tx.Where("group_id IN ?", filter.GroupIDs)
	}
	if filter.ExcludeBots {
		tx = tx.Where("is_bot = FALSE")
	}

	var rows []memberModel
	if err := tx.Order("telegram_user_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendResult(ctx context.Context, result entities.DeliveryResult) error {
	row := resultModelFromEntity(result)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *Repository) ListResults(ctx context.Context, campaignID string) ([]entities.DeliveryResult, error) {
	var rows []resultModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("sent_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.DeliveryResult, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListSentTargets(ctx context.Context, teamID string, excludeCampaignID string) (ports.SentTargets, error) {
	type sentRow struct {
		TargetUserID   int64
		TargetUsername string
	}
	var rows []sentRow
	err := r.db.WithContext(ctx).
		Table("campaign_results AS r").
		Select("r.target_user_id, r.target_username").
		Joins("JOIN campaigns c ON c.campaign_id = r.campaign_id").
		Where("r.status = ?", string(entities.ResultStatusSent)).
		Where("r.campaign_id <> ?", strings.TrimSpace(excludeCampaignID)).
		Where("c.team_id = ?", strings.TrimSpace(teamID)).
		Where("c.status <> ?", string(entities.CampaignStatusDraft)).
		Scan(&rows).
		Error
	if err != nil {
		return ports.SentTargets{}, err
	}

	targets := ports.SentTargets{
		UserIDs:   make(map[int64]struct{}, len(rows)),
		Usernames: make(map[string]struct{}, len(rows)),
	}
	for _, row := range rows {
		targets.UserIDs[row.TargetUserID] = struct{}{}
		if row.TargetUsername != "" {
			targets.Usernames[strings.ToLower(row.TargetUsername)] = struct{}{}
		}
	}
	return targets, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	stamped := publishedAt.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &stamped,
		}).
		Error
}

type campaignModel struct {
	CampaignID      string     `gorm:"column:campaign_id;primaryKey"`
	TeamID          string     `gorm:"column:team_id"`
	Name            string     `gorm:"column:name"`
	Status          string     `gorm:"column:status"`
	TargetGroups    []string   `gorm:"column:target_groups;type:text[]"`
	MessageTemplate string     `gorm:"column:message_template"`
	SessionIDs      []string   `gorm:"column:session_ids;type:text[]"`
	Config          []byte     `gorm:"column:campaign_config;type:jsonb"`
	Progress        []byte     `gorm:"column:progress;type:jsonb"`
	ScheduledAt     *time.Time `gorm:"column:scheduled_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

func campaignModelFromEntity(item entities.Campaign) (campaignModel, error) {
	progress, err := json.Marshal(item.Progress)
	if err != nil {
		return campaignModel{}, err
	}
	var config []byte
	if item.Config != nil {
		config, err = json.Marshal(item.Config)
		if err != nil {
			return campaignModel{}, err
		}
	}
	return campaignModel{
		CampaignID:      strings.TrimSpace(item.CampaignID),
		TeamID:          strings.TrimSpace(item.TeamID),
		Name:            strings.TrimSpace(item.Name),
		Status:          string(item.Status),
		TargetGroups:    copyOrEmpty(item.TargetGroups),
		MessageTemplate: item.MessageTemplate,
		SessionIDs:      copyOrEmpty(item.SessionIDs),
		Config:          config,
		Progress:        progress,
		ScheduledAt:     normalizeOptionalTime(item.ScheduledAt),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
		StartedAt:       normalizeOptionalTime(item.StartedAt),
		CompletedAt:     normalizeOptionalTime(item.CompletedAt),
	}, nil
}

func campaignUpdatesFromEntity(item entities.Campaign) (map[string]any, error) {
	row, err := campaignModelFromEntity(item)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"team_id":          row.TeamID,
		"name":             row.Name,
		"status":           row.Status,
		"target_groups":    row.TargetGroups,
		"message_template": row.MessageTemplate,
		"session_ids":      row.SessionIDs,
		"campaign_config":  row.Config,
		"progress":         row.Progress,
		"scheduled_at":     row.ScheduledAt,
		"updated_at":       row.UpdatedAt,
		"started_at":       row.StartedAt,
		"completed_at":     row.CompletedAt,
	}, nil
}

func (m campaignModel) toEntity() (entities.Campaign, error) {
	var progress entities.Progress
	if len(m.Progress) > 0 {
		if err := json.Unmarshal(m.Progress, &progress); err != nil {
			return entities.Campaign{}, err
		}
	}
	var config *policy.Config
	if len(m.Config) > 0 {
		config = &policy.Config{}
		if err := json.Unmarshal(m.Config, config); err != nil {
			return entities.Campaign{}, err
		}
	}
	return entities.Campaign{
		CampaignID:      m.CampaignID,
		TeamID:          m.TeamID,
		Name:            m.Name,
		Status:          entities.CampaignStatus(m.Status),
		TargetGroups:    m.TargetGroups,
		MessageTemplate: m.MessageTemplate,
		SessionIDs:      m.SessionIDs,
		Config:          config,
		Progress:        progress,
		ScheduledAt:     m.ScheduledAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
	}, nil
}

func campaignsFromRows(rows []campaignModel) ([]entities.Campaign, error) {
	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

type sessionModel struct {
	SessionID   string    `gorm:"column:session_id;primaryKey"`
	TeamID      string    `gorm:"column:team_id"`
	Label       string    `gorm:"column:label"`
	IsActive    bool      `gorm:"column:is_active"`
	Credentials string    `gorm:"column:credentials"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "telegram_sessions"
}

func sessionModelFromEntity(item entities.Session) sessionModel {
	return sessionModel{
		SessionID:   strings.TrimSpace(item.SessionID),
		TeamID:      strings.TrimSpace(item.TeamID),
		Label:       strings.TrimSpace(item.Label),
		IsActive:    item.IsActive,
		Credentials: item.Credentials,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

func (m sessionModel) toEntity() entities.Session {
	return entities.Session{
		SessionID:   m.SessionID,
		TeamID:      m.TeamID,
		Label:       m.Label,
		IsActive:    m.IsActive,
		Credentials: m.Credentials,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type memberModel struct {
	MemberID       string    `gorm:"column:member_id;primaryKey"`
	GroupID        string    `gorm:"column:group_id;uniqueIndex:idx_group_member"`
	TelegramUserID int64     `gorm:"column:telegram_user_id;uniqueIndex:idx_group_member"`
	Username       string    `gorm:"column:username"`
	AccessHash     int64     `gorm:"column:access_hash"`
	FirstName      string    `gorm:"column:first_name"`
	LastName       string    `gorm:"column:last_name"`
	IsBot          bool      `gorm:"column:is_bot"`
	ExtractedAt    time.Time `gorm:"column:extracted_at"`
}

func (memberModel) TableName() string {
	return "group_members"
}

func memberModelFromEntity(item entities.Member) memberModel {
	return memberModel{
		MemberID:       strings.TrimSpace(item.MemberID),
		GroupID:        strings.TrimSpace(item.GroupID),
		TelegramUserID: item.TelegramUserID,
		Username:       strings.TrimSpace(item.Username),
		AccessHash:     item.AccessHash,
		FirstName:      item.FirstName,
		LastName:       item.LastName,
		IsBot:          item.IsBot,
		ExtractedAt:    item.ExtractedAt.UTC(),
	}
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		MemberID:       m.MemberID,
		GroupID:        m.GroupID,
		TelegramUserID: m.TelegramUserID,
		Username:       m.Username,
		AccessHash:     m.AccessHash,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		IsBot:          m.IsBot,
		ExtractedAt:    m.ExtractedAt,
	}
}

type resultModel struct {
	ResultID       string    `gorm:"column:result_id;primaryKey"`
	CampaignID     string    `gorm:"column:campaign_id"`
	SessionID      string    `gorm:"column:session_id"`
	TargetUserID   int64     `gorm:"column:target_user_id"`
	TargetUsername string    `gorm:"column:target_username"`
	Status         string    `gorm:"column:status"`
	ErrorMessage   string    `gorm:"column:error_message"`
	SentAt         time.Time `gorm:"column:sent_at"`
}

func (resultModel) TableName() string {
	return "campaign_results"
}

func resultModelFromEntity(item entities.DeliveryResult) resultModel {
	return resultModel{
		ResultID:       strings.TrimSpace(item.ResultID),
		CampaignID:     strings.TrimSpace(item.CampaignID),
		SessionID:      strings.TrimSpace(item.SessionID),
		TargetUserID:   item.TargetUserID,
		TargetUsername: strings.TrimSpace(item.TargetUsername),
		Status:         string(item.Status),
		ErrorMessage:   item.ErrorMessage,
		SentAt:         item.SentAt.UTC(),
	}
}

func (m resultModel) toEntity() entities.DeliveryResult {
	return entities.DeliveryResult{
		ResultID:       m.ResultID,
		CampaignID:     m.CampaignID,
		SessionID:      m.SessionID,
		TargetUserID:   m.TargetUserID,
		TargetUsername: m.TargetUsername,
		Status:         entities.ResultStatus(m.Status),
		ErrorMessage:   m.ErrorMessage,
		SentAt:         m.SentAt,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "dispatch_outbox"
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
