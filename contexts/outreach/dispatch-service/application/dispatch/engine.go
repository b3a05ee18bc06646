package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	application "herald/contexts/outreach/dispatch-service/application"
	"herald/contexts/outreach/dispatch-service/domain/distribution"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/domain/policy"
	"herald/contexts/outreach/dispatch-service/ports"
)

const (
	// floodCooldown is the fixed sleep after a flood error; the provider has
	// flagged the session, so we back off for a full hour before touching it
	// again.
	floodCooldown = time.Hour
	// floodErrorJump is how many consecutive failures a flood error counts
	// as before the cooldown clears the counter.
	floodErrorJump = 5
	// invalidTargetDelay is the short pause after a bad-target failure. A
	// deleted account says nothing about rate limits, so no backoff applies.
	invalidTargetDelay = 2 * time.Second
	// maxConsecutiveErrors is the per-worker circuit breaker threshold.
	maxConsecutiveErrors = 10
	// progressFlushEvery is how many processed recipients a worker handles
	// between progress writes.
	progressFlushEvery = 10
)

const (
	EventCampaignCompleted = "outreach.campaign.completed"
	EventCampaignFailed    = "outreach.campaign.failed"
)

// Engine drives a full campaign dispatch: one worker per connected session,
// static recipient partitioning, per-session pacing and backoff, shared
// progress accounting. Callers validate preconditions before handing a
// campaign over; Run never returns an error, failures end in the campaign
// record.
type Engine struct {
	Campaigns ports.CampaignRepository
	Members   ports.MemberRepository
	Results   ports.ResultRepository
	Connector ports.MessengerConnector
	Clock     ports.Clock
	Sleeper   ports.Sleeper
	IDGen     ports.IDGenerator
	Outbox    ports.OutboxWriter
	Logger    *slog.Logger
	Rand      *rand.Rand

	limiterOnce sync.Once
	limiter     *RateLimiter
	randMu      sync.Mutex
}

func (e *Engine) rateLimiter() *RateLimiter {
	e.limiterOnce.Do(func() {
		e.limiter = NewRateLimiter()
	})
	return e.limiter
}

// runRand returns a random source private to one dispatch run. Worker
// goroutines derive their own sources from it before fan-out.
func (e *Engine) runRand() *rand.Rand {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	if e.Rand != nil {
		return rand.New(rand.NewSource(e.Rand.Int63()))
	}
	return rand.New(rand.NewSource(e.Clock.Now().UnixNano()))
}

// Run executes the dispatch for an already-validated campaign against the
// requested sessions. It is designed to be invoked detached: panics and
// errors are recorded on the campaign, never re-thrown.
func (e *Engine) Run(ctx context.Context, campaign entities.Campaign, sessions []entities.Session) {
	logger := application.ResolveLogger(e.Logger).With(
		"module", "outreach/dispatch-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
	)
	conns := make(map[string]ports.Messenger)
	defer e.disconnectAll(ctx, conns, logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("campaign dispatch panicked",
				"event", "campaign_dispatch_panicked",
				"panic", fmt.Sprint(r),
			)
			e.finalizeFailed(ctx, campaign.CampaignID, fmt.Sprintf("dispatch panic: %v", r), logger)
		}
	}()

	if err := e.dispatch(ctx, campaign, sessions, conns, logger); err != nil {
		logger.Error("campaign dispatch failed",
			"event", "campaign_dispatch_failed",
			"error", err.Error(),
		)
		e.finalizeFailed(ctx, campaign.CampaignID, err.Error(), logger)
	}
}

func (e *Engine) dispatch(
	ctx context.Context,
	campaign entities.Campaign,
	sessions []entities.Session,
	conns map[string]ports.Messenger,
	logger *slog.Logger,
) error {
	cfg := policy.Resolve(campaign.Config)
	rng := e.runRand()
	now := e.Clock.Now().UTC()

	campaign.Status = entities.CampaignStatusRunning
	campaign.StartedAt = &now
	campaign.UpdatedAt = now
	if err := e.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		return fmt.Errorf("mark campaign running: %w", err)
	}
	logger.Info("campaign dispatch started",
		"event", "campaign_dispatch_started",
		"session_count", len(sessions),
	)

	connected := make([]entities.Session, 0, len(sessions))
	attempted := make([]string, 0, len(sessions))
	for _, session := range sessions {
		attempted = append(attempted, session.SessionID)
		messenger, err := e.Connector.Connect(ctx, session)
		if err != nil {
			logger.Warn("session connect failed",
				"event", "session_connect_failed",
				"session_id", session.SessionID,
				"error", err.Error(),
			)
			continue
		}
		conns[session.SessionID] = messenger
		connected = append(connected, session)
	}
	if len(connected) == 0 {
		return fmt.Errorf("%w: attempted sessions %s",
			domainerrors.ErrNoSessionsConnected, strings.Join(attempted, ", "))
	}

	eligible, duplicates, err := e.loadRecipients(ctx, campaign, cfg)
	if err != nil {
		return err
	}
	originalCount := len(eligible)

	target := campaign.Progress.Total
	if target <= 0 {
		target = policy.TargetCount(originalCount, cfg.MemberSelection, rng)
	}
	if target < len(eligible) {
		rng.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})
		eligible = eligible[:target]
	}

	assigned := distribution.Distribute(
		eligible, connected, cfg.Sessions.Strategy, cfg.Sessions.MinPerSession, rng)

	campaign.Progress = entities.Progress{
		Total:              len(eligible),
		DuplicatesExcluded: duplicates,
		OriginalCount:      originalCount,
	}
	if err := e.Campaigns.UpdateProgress(ctx, campaign.CampaignID, campaign.Progress, e.Clock.Now().UTC()); err != nil {
		return fmt.Errorf("record initial progress: %w", err)
	}
	logger.Info("recipients distributed",
		"event", "recipients_distributed",
		"eligible_count", originalCount,
		"target_count", len(eligible),
		"duplicates_excluded", duplicates,
		"connected_sessions", len(connected),
	)

	agg := &progressAggregator{
		campaignID: campaign.CampaignID,
		total:      len(eligible),
		duplicates: duplicates,
		original:   originalCount,
	}
	var wg sync.WaitGroup
	for _, session := range connected {
		batch := assigned[session.SessionID]
		worker := &sessionWorker{
			engine:    e,
			campaign:  campaign,
			session:   session,
			messenger: conns[session.SessionID],
			batch:     batch,
			cfg:       cfg,
			rng:       rand.New(rand.NewSource(rng.Int63())),
			agg:       agg,
			logger: logger.With(
				"session_id", session.SessionID,
				"assigned_count", len(batch),
			),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.run(ctx)
		}()
	}
	wg.Wait()

	e.finalizeCompleted(ctx, campaign.CampaignID, agg, logger)
	return nil
}

// loadRecipients builds the eligible recipient pool. The four empty-pool
// cases carry distinct diagnostics; operators act on which one they see.
func (e *Engine) loadRecipients(
	ctx context.Context,
	campaign entities.Campaign,
	cfg policy.Resolved,
) ([]entities.Member, int, error) {
	members, err := e.Members.ListMembers(ctx, ports.MemberFilter{
		GroupIDs:    campaign.TargetGroups,
		ExcludeBots: true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load group members: %w", err)
	}
	if len(members) == 0 {
		return nil, 0, fmt.Errorf("%w: target groups %s contain no extracted members",
			domainerrors.ErrNoGroupMembers, strings.Join(campaign.TargetGroups, ", "))
	}

	withHash := make([]entities.Member, 0, len(members))
	for _, member := range members {
		if member.HasAccessHash() {
			withHash = append(withHash, member)
		}
	}
	missingHash := len(members) - len(withHash)
	if len(withHash) == 0 {
		return nil, 0, fmt.Errorf("%w: %d members found but none carry an access hash; re-extract the groups",
			domainerrors.ErrNoMembersWithAccessHash, len(members))
	}

	eligible := withHash
	duplicates := 0
	if cfg.Dedup.Enabled {
		sent, err := e.Results.ListSentTargets(ctx, campaign.TeamID, campaign.CampaignID)
		if err != nil {
			return nil, 0, fmt.Errorf("load dedup set: %w", err)
		}
		kept := make([]entities.Member, 0, len(withHash))
		for _, member := range withHash {
			if _, ok := sent.UserIDs[member.TelegramUserID]; ok {
				duplicates++
				continue
			}
			if member.Username != "" {
				if _, ok := sent.Usernames[strings.ToLower(member.Username)]; ok {
					duplicates++
					continue
				}
			}
			kept = append(kept, member)
		}
		eligible = kept
	}
	if len(eligible) == 0 {
		if missingHash > 0 {
			return nil, 0, fmt.Errorf("%w: %d members lack an access hash and the remaining %d were already contacted",
				domainerrors.ErrAllRecipientsDuplicates, missingHash, duplicates)
		}
		return nil, 0, fmt.Errorf("%w: all %d members were already contacted by earlier campaigns",
			domainerrors.ErrAllRecipientsDuplicates, duplicates)
	}
	return eligible, duplicates, nil
}

func (e *Engine) finalizeCompleted(
	ctx context.Context,
	campaignID string,
	agg *progressAggregator,
	logger *slog.Logger,
) {
	now := e.Clock.Now().UTC()
	campaign, err := e.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		logger.Error("finalize read failed",
			"event", "campaign_finalize_read_failed",
			"error", err.Error(),
		)
		return
	}
	campaign.Status = entities.CampaignStatusCompleted
	campaign.CompletedAt = &now
	campaign.UpdatedAt = now
	campaign.Progress = agg.snapshot()
	if err := e.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		logger.Error("finalize write failed",
			"event", "campaign_finalize_write_failed",
			"error", err.Error(),
		)
		return
	}
	logger.Info("campaign dispatch completed",
		"event", "campaign_dispatch_completed",
		"sent", campaign.Progress.Sent,
		"failed", campaign.Progress.Failed,
		"total", campaign.Progress.Total,
	)
	e.emitEvent(ctx, EventCampaignCompleted, campaign, logger)
}

func (e *Engine) finalizeFailed(
	ctx context.Context,
	campaignID string,
	message string,
	logger *slog.Logger,
) {
	now := e.Clock.Now().UTC()
	campaign, err := e.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		logger.Error("failure finalize read failed",
			"event", "campaign_finalize_read_failed",
			"error", err.Error(),
		)
		return
	}
	campaign.Status = entities.CampaignStatusFailed
	campaign.CompletedAt = &now
	campaign.UpdatedAt = now
	campaign.Progress.Error = message
	if err := e.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		logger.Error("failure finalize write failed",
			"event", "campaign_finalize_write_failed",
			"error", err.Error(),
		)
		return
	}
	e.emitEvent(ctx, EventCampaignFailed, campaign, logger)
}

func (e *Engine) emitEvent(
	ctx context.Context,
	eventType string,
	campaign entities.Campaign,
	logger *slog.Logger,
) {
	if e.Outbox == nil {
		return
	}
	payload, err := json.Marshal(campaign.Progress)
	if err != nil {
		logger.Error("event payload encode failed",
			"event", "campaign_event_encode_failed",
			"error", err.Error(),
		)
		return
	}
	eventID, err := e.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("event id generation failed",
			"event", "campaign_event_id_failed",
			"error", err.Error(),
		)
		return
	}
	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    e.Clock.Now().UTC(),
		SourceService: "outreach/dispatch-service",
		SchemaVersion: 1,
		PartitionKey:  campaign.CampaignID,
		Data:          payload,
	}
	if err := e.Outbox.AppendOutbox(ctx, envelope); err != nil {
		logger.Error("event outbox append failed",
			"event", "campaign_event_outbox_failed",
			"error", err.Error(),
		)
	}
}

func (e *Engine) disconnectAll(
	ctx context.Context,
	conns map[string]ports.Messenger,
	logger *slog.Logger,
) {
	for sessionID, messenger := range conns {
		if err := messenger.Disconnect(ctx); err != nil {
			logger.Warn("session disconnect failed",
				"event", "session_disconnect_failed",
				"session_id", sessionID,
				"error", err.Error(),
			)
		}
	}
}

// progressAggregator holds the cluster totals workers report into. Flushes
// overwrite the stored progress record wholesale; interleaved flushes can
// only be stale, never wrong, because the aggregator is the source of truth.
type progressAggregator struct {
	campaignID string

	mu         sync.Mutex
	sent       int
	failed     int
	total      int
	duplicates int
	original   int
}

func (a *progressAggregator) addSent() {
	a.mu.Lock()
	a.sent++
	a.mu.Unlock()
}

func (a *progressAggregator) addFailed() {
	a.mu.Lock()
	a.failed++
	a.mu.Unlock()
}

func (a *progressAggregator) snapshot() entities.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return entities.Progress{
		Sent:               a.sent,
		Failed:             a.failed,
		Total:              a.total,
		DuplicatesExcluded: a.duplicates,
		OriginalCount:      a.original,
	}
}

type sessionWorker struct {
	engine    *Engine
	campaign  entities.Campaign
	session   entities.Session
	messenger ports.Messenger
	batch     []entities.Member
	cfg       policy.Resolved
	rng       *rand.Rand
	agg       *progressAggregator
	logger    *slog.Logger

	consecutiveErrors int
	sessionSent       int
	processed         int
}

func (w *sessionWorker) run(ctx context.Context) {
	logger := w.logger
	logger.Info("dispatch worker started", "event", "dispatch_worker_started")

	for _, member := range w.batch {
		current, err := w.engine.Campaigns.GetCampaign(ctx, w.campaign.CampaignID)
		if err != nil {
			logger.Warn("campaign status check failed",
				"event", "campaign_status_check_failed",
				"error", err.Error(),
			)
		} else if current.Status == entities.CampaignStatusPaused {
			logger.Info("dispatch worker observed pause",
				"event", "dispatch_worker_paused",
				"session_sent", w.sessionSent,
			)
			w.flush(ctx)
			return
		}

		now := w.engine.Clock.Now()
		allowed, resetAt := w.engine.rateLimiter().Check(
			w.session.SessionID, w.cfg.Sessions.MaxMessagesPerHour, now)
		if !allowed {
			wait := resetAt.Sub(now)
			logger.Info("session rate limited",
				"event", "session_rate_limited",
				"wait_ms", wait.Milliseconds(),
			)
			if err := w.sleep(ctx, wait); err != nil {
				w.flush(ctx)
				return
			}
		}

		message := RenderTemplate(w.campaign.MessageTemplate, member)
		if sendErr := w.deliver(ctx, member, message); sendErr == nil {
			w.onSent(ctx, member)
		} else if stop := w.onFailure(ctx, member, sendErr); stop {
			w.flush(ctx)
			return
		}

		w.processed++
		if w.processed%progressFlushEvery == 0 {
			w.flush(ctx)
		}
	}

	logger.Info("dispatch worker finished",
		"event", "dispatch_worker_finished",
		"session_sent", w.sessionSent,
	)
	w.flush(ctx)
}

// deliver resolves the recipient and sends one message. Resolution failures
// surface as bad-target send errors rather than aborting the worker.
func (w *sessionWorker) deliver(ctx context.Context, member entities.Member, message string) error {
	entity, err := w.resolve(ctx, member)
	if err != nil {
		return err
	}
	return w.messenger.Send(ctx, entity, message)
}

// resolve tries the three recipient lookups in order: username, direct peer
// from id plus access hash, bare numeric id. Intermediate failures just move
// to the next tier.
func (w *sessionWorker) resolve(ctx context.Context, member entities.Member) (ports.Entity, error) {
	if member.Username != "" {
		entity, err := w.messenger.Resolve(ctx, ports.EntityRef{Username: member.Username})
		if err == nil {
			return entity, nil
		}
	}
	if member.HasAccessHash() {
		entity, err := w.messenger.Resolve(ctx, ports.EntityRef{
			TelegramUserID: member.TelegramUserID,
			AccessHash:     member.AccessHash,
		})
		if err == nil {
			return entity, nil
		}
	}
	entity, err := w.messenger.Resolve(ctx, ports.EntityRef{TelegramUserID: member.TelegramUserID})
	if err == nil {
		return entity, nil
	}
	return nil, &ports.SendError{
		Code:    ports.SendErrorInvalidTarget,
		Message: "user not found, possibly blocked or deleted the account",
	}
}

func (w *sessionWorker) onSent(ctx context.Context, member entities.Member) {
	w.sessionSent++
	w.consecutiveErrors = 0
	w.agg.addSent()
	w.engine.rateLimiter().Record(w.session.SessionID, w.engine.Clock.Now())
	w.record(ctx, member, entities.ResultStatusSent, "")

	if err := w.sleep(ctx, policy.Delay(w.cfg.Timing, w.rng)); err != nil {
		return
	}
	if policy.ShouldPause(w.cfg.AntiDetection, w.rng) {
		extra := policy.PauseExtra(w.rng)
		w.logger.Info("anti-detection pause",
			"event", "anti_detection_pause",
			"pause_ms", extra.Milliseconds(),
		)
		_ = w.sleep(ctx, extra)
	}
}

// onFailure records the failure and applies the classified reaction. It
// returns true when the worker must stop.
func (w *sessionWorker) onFailure(ctx context.Context, member entities.Member, sendErr error) bool {
	w.agg.addFailed()
	w.record(ctx, member, entities.ResultStatusFailed, sendErr.Error())

	code := ports.SendErrorUnknown
	var classified *ports.SendError
	if errors.As(sendErr, &classified) {
		code = classified.Code
	}

	switch code {
	case ports.SendErrorInvalidTarget:
		// Bad target, not rate pressure: leave the error counter alone.
		w.logger.Warn("recipient unreachable",
			"event", "recipient_unreachable",
			"target_user_id", member.TelegramUserID,
			"error", sendErr.Error(),
		)
		_ = w.sleep(ctx, invalidTargetDelay)
		return false
	case ports.SendErrorFlood:
		w.consecutiveErrors += floodErrorJump
		w.logger.Warn("session flooded, cooling down",
			"event", "session_flood_cooldown",
			"cooldown_ms", floodCooldown.Milliseconds(),
		)
		if err := w.sleep(ctx, floodCooldown); err != nil {
			return true
		}
		// The hour-long cooldown is treated as full recovery.
		w.consecutiveErrors = 0
		return false
	default:
		w.consecutiveErrors++
		w.logger.Warn("send failed",
			"event", "send_failed",
			"target_user_id", member.TelegramUserID,
			"consecutive_errors", w.consecutiveErrors,
			"error", sendErr.Error(),
		)
		if w.consecutiveErrors >= maxConsecutiveErrors {
			w.logger.Error("dispatch worker circuit open",
				"event", "dispatch_worker_circuit_open",
				"consecutive_errors", w.consecutiveErrors,
			)
			return true
		}
		if w.cfg.AntiDetection.Backoff.Enabled {
			_ = w.sleep(ctx, policy.Backoff(w.consecutiveErrors-1, w.cfg.AntiDetection.Backoff))
		} else {
			_ = w.sleep(ctx, policy.Delay(w.cfg.Timing, w.rng))
		}
		return false
	}
}

func (w *sessionWorker) record(ctx context.Context, member entities.Member, status entities.ResultStatus, errMessage string) {
	resultID, err := w.engine.IDGen.NewID(ctx)
	if err != nil {
		w.logger.Warn("result id generation failed",
			"event", "result_id_failed",
			"error", err.Error(),
		)
		return
	}
	result := entities.DeliveryResult{
		ResultID:       resultID,
		CampaignID:     w.campaign.CampaignID,
		SessionID:      w.session.SessionID,
		TargetUserID:   member.TelegramUserID,
		TargetUsername: member.Username,
		Status:         status,
		ErrorMessage:   errMessage,
		SentAt:         w.engine.Clock.Now().UTC(),
	}
	if err := w.engine.Results.AppendResult(ctx, result); err != nil {
		w.logger.Warn("result append failed",
			"event", "result_append_failed",
			"error", err.Error(),
		)
	}
}

// flush overwrites the stored progress record with the current totals. It
// touches progress only; the campaign status stays whatever a concurrent
// pause command left it as.
func (w *sessionWorker) flush(ctx context.Context) {
	snapshot := w.agg.snapshot()
	err := w.engine.Campaigns.UpdateProgress(
		ctx, w.campaign.CampaignID, snapshot, w.engine.Clock.Now().UTC())
	if err != nil {
		w.logger.Warn("progress flush write failed",
			"event", "progress_flush_write_failed",
			"error", err.Error(),
		)
	}
}

func (w *sessionWorker) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return w.engine.Sleeper.Sleep(ctx, d)
}
