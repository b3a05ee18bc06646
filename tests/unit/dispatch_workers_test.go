package unit

import (
	"context"
	"sync"
	"testing"
	"time"

	"herald/contexts/outreach/dispatch-service/adapters/memory"
	"herald/contexts/outreach/dispatch-service/application/dispatch"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
	httptransport "herald/contexts/outreach/dispatch-service/transport/http"
)

// pauseAfterReads spoofs a paused campaign status after a fixed number of
// status polls, so the cooperative pause path runs deterministically.
type pauseAfterReads struct {
	*memory.Store

	mu        sync.Mutex
	threshold int
	reads     int
}

func (p *pauseAfterReads) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	campaign, err := p.Store.GetCampaign(ctx, campaignID)
	if err != nil {
		return campaign, err
	}
	p.mu.Lock()
	p.reads++
	paused := p.reads > p.threshold
	p.mu.Unlock()
	if paused && campaign.Status == entities.CampaignStatusRunning {
		campaign.Status = entities.CampaignStatusPaused
	}
	return campaign, nil
}

func TestWorkerStopsWhenPauseIsObserved(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 12, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	pausing := &pauseAfterReads{Store: module.Store, threshold: 4}
	engine := &dispatch.Engine{
		Campaigns: pausing,
		Members:   module.Store,
		Results:   module.Store,
		Connector: module.Connector,
		Clock:     module.Clock,
		Sleeper:   module.Sleeper,
		IDGen:     module.Store,
		Outbox:    module.Store,
	}

	campaign, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	session, err := module.Store.GetSession(context.Background(), s1)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	engine.Run(context.Background(), campaign, []entities.Session{session})

	if got := len(module.Connector.Sent()); got != 4 {
		t.Fatalf("expected 4 messages before pause took effect, got %d", got)
	}

	final, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if final.Status != entities.CampaignStatusCompleted {
		t.Fatalf("finalization marks the run completed, got %s", final.Status)
	}
	if final.Progress.Sent != 4 || final.Progress.Total != 12 {
		t.Fatalf("unexpected final progress: %+v", final.Progress)
	}
}

// pauseDuringFlush lands a pause command in the store at the moment of a
// chosen progress flush, racing the flush write exactly.
type pauseDuringFlush struct {
	*memory.Store

	mu      sync.Mutex
	fireOn  int
	flushes int
}

func (p *pauseDuringFlush) UpdateProgress(ctx context.Context, campaignID string, progress entities.Progress, updatedAt time.Time) error {
	p.mu.Lock()
	p.flushes++
	fire := p.flushes == p.fireOn
	p.mu.Unlock()
	if fire {
		campaign, err := p.Store.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		campaign.Status = entities.CampaignStatusPaused
		if err := p.Store.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
	}
	return p.Store.UpdateProgress(ctx, campaignID, progress, updatedAt)
}

func TestPauseLandingDuringFlushIsNotOverwritten(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 12, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	// Flush 1 records the initial totals; flush 2 happens after ten processed
	// recipients, which is where the pause command lands.
	pausing := &pauseDuringFlush{Store: module.Store, fireOn: 2}
	engine := &dispatch.Engine{
		Campaigns: pausing,
		Members:   module.Store,
		Results:   module.Store,
		Connector: module.Connector,
		Clock:     module.Clock,
		Sleeper:   module.Sleeper,
		IDGen:     module.Store,
		Outbox:    module.Store,
	}

	campaign, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	session, err := module.Store.GetSession(context.Background(), s1)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	engine.Run(context.Background(), campaign, []entities.Session{session})

	if got := len(module.Connector.Sent()); got != 10 {
		t.Fatalf("worker must stop at the pause, sent %d of 12", got)
	}
	final, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if final.Status != entities.CampaignStatusCompleted {
		t.Fatalf("finalization marks the run completed, got %s", final.Status)
	}
	if final.Progress.Sent != 10 || final.Progress.Total != 12 {
		t.Fatalf("unexpected final progress: %+v", final.Progress)
	}
}

func TestScheduledStarterSweepsDueCampaigns(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, true)

	resp, err := module.Handler.CreateCampaignHandler(context.Background(), "team-1", httptransport.CreateCampaignRequest{
		Name:            "Morning wave",
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "Hey {first_name}",
		SessionIDs:      []string{s1},
		Config:          absoluteConfig,
		ScheduledAt:     testStart.Add(30 * time.Minute).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create scheduled campaign failed: %v", err)
	}
	campaignID := resp.Campaign.CampaignID

	if err := module.ScheduledStarter.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep before due time failed: %v", err)
	}
	early := getProgress(t, module, campaignID)
	if early.Status != string(entities.CampaignStatusScheduled) {
		t.Fatalf("campaign must stay scheduled before its start time, got %s", early.Status)
	}

	module.Clock.Advance(time.Hour)
	if err := module.ScheduledStarter.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep after due time failed: %v", err)
	}

	// The sweep hands the campaign to a detached run; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		progress := getProgress(t, module, campaignID)
		if progress.Status == string(entities.CampaignStatusCompleted) {
			if progress.Progress.Sent != 4 {
				t.Fatalf("expected 4 sends, got %d", progress.Progress.Sent)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("scheduled campaign did not complete, status %s", progress.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduledStarterSkipsCampaignsThatFailValidation(t *testing.T) {
	module := newTestModule()
	registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, true)

	resp, err := module.Handler.CreateCampaignHandler(context.Background(), "team-1", httptransport.CreateCampaignRequest{
		Name:            "Broken wave",
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "Hey {first_name}",
		SessionIDs:      []string{"session-gone"},
		ScheduledAt:     testStart.Add(30 * time.Minute).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create scheduled campaign failed: %v", err)
	}

	module.Clock.Advance(time.Hour)
	if err := module.ScheduledStarter.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	progress := getProgress(t, module, resp.Campaign.CampaignID)
	if progress.Status != string(entities.CampaignStatusScheduled) {
		t.Fatalf("rejected campaign must stay scheduled, got %s", progress.Status)
	}
	if len(module.Connector.Sent()) != 0 {
		t.Fatalf("nothing may be sent for a rejected campaign")
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) published() ([]string, []ports.EventEnvelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...), append([]ports.EventEnvelope(nil), p.events...)
}

func TestOutboxRelayPublishesCompletionEventExactlyOnce(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)
	startSync(t, module, campaignID, []string{s1})

	capture := &capturePublisher{}
	relay := module.OutboxRelay
	relay.Publisher = capture

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	topics, events := capture.published()
	if len(topics) != 1 || topics[0] != dispatch.EventCampaignCompleted {
		t.Fatalf("expected one completion event, got %v", topics)
	}
	if events[0].PartitionKey != campaignID {
		t.Fatalf("expected campaign id as partition key, got %s", events[0].PartitionKey)
	}
	if events[0].SourceService != "outreach/dispatch-service" {
		t.Fatalf("unexpected source service %s", events[0].SourceService)
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	topics, _ = capture.published()
	if len(topics) != 1 {
		t.Fatalf("published events must not repeat, got %v", topics)
	}
}

func TestOutboxRelayPublishesFailureEvents(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	campaignID := createCampaign(t, module, "team-1", "group-without-members", nil)
	startSync(t, module, campaignID, []string{s1})

	capture := &capturePublisher{}
	relay := module.OutboxRelay
	relay.Publisher = capture

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	topics, _ := capture.published()
	if len(topics) != 1 || topics[0] != dispatch.EventCampaignFailed {
		t.Fatalf("expected one failure event, got %v", topics)
	}
}
