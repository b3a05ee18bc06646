package unit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	dispatchservice "herald/contexts/outreach/dispatch-service"
	"herald/contexts/outreach/dispatch-service/application/commands"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	domainerrors "herald/contexts/outreach/dispatch-service/domain/errors"
	"herald/contexts/outreach/dispatch-service/ports"
	httptransport "herald/contexts/outreach/dispatch-service/transport/http"
)

var testStart = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// absoluteConfig targets every eligible member so counts stay exact.
var absoluteConfig = json.RawMessage(`{"member_selection":{"mode":"absolute","max_members":1000}}`)

func newTestModule() dispatchservice.Module {
	return dispatchservice.NewInMemoryModule(nil, testStart, nil)
}

func registerSession(t *testing.T, module dispatchservice.Module, teamID string, label string) string {
	t.Helper()
	resp, err := module.Handler.RegisterSessionHandler(context.Background(), teamID, httptransport.RegisterSessionRequest{
		Label:       label,
		Credentials: "token-" + label,
	})
	if err != nil {
		t.Fatalf("register session %s failed: %v", label, err)
	}
	return resp.Session.SessionID
}

func importMembers(t *testing.T, module dispatchservice.Module, groupID string, count int, withHash bool) {
	t.Helper()
	members := make([]httptransport.MemberPayload, 0, count)
	for i := 0; i < count; i++ {
		payload := httptransport.MemberPayload{
			TelegramUserID: int64(1000 + i),
			FirstName:      fmt.Sprintf("First%d", i),
			LastName:       fmt.Sprintf("Last%d", i),
		}
		if withHash {
			payload.AccessHash = int64(5000 + i)
		}
		members = append(members, payload)
	}
	_, err := module.Handler.ImportMembersHandler(context.Background(), groupID, httptransport.ImportMembersRequest{
		Members: members,
	})
	if err != nil {
		t.Fatalf("import members failed: %v", err)
	}
}

func createCampaign(t *testing.T, module dispatchservice.Module, teamID string, groupID string, sessionIDs []string) string {
	t.Helper()
	resp, err := module.Handler.CreateCampaignHandler(context.Background(), teamID, httptransport.CreateCampaignRequest{
		Name:            "Launch outreach",
		TargetGroups:    []string{groupID},
		MessageTemplate: "Hey {first_name}, check this out",
		SessionIDs:      sessionIDs,
		Config:          absoluteConfig,
	})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return resp.Campaign.CampaignID
}

// startSync runs the dispatch on the calling goroutine so assertions see the
// finished state.
func startSync(t *testing.T, module dispatchservice.Module, campaignID string, sessionIDs []string) {
	t.Helper()
	uc := commands.StartCampaignUseCase{
		Campaigns: module.Store,
		Sessions:  module.Store,
		Engine:    module.Engine,
	}
	if err := uc.Execute(context.Background(), commands.StartCampaignCommand{
		CampaignID: campaignID,
		SessionIDs: sessionIDs,
	}); err != nil {
		t.Fatalf("start campaign failed: %v", err)
	}
}

func getProgress(t *testing.T, module dispatchservice.Module, campaignID string) httptransport.ProgressResponse {
	t.Helper()
	resp, err := module.Handler.GetProgressHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get progress failed: %v", err)
	}
	return resp
}

func TestDispatchDeliversToAllRecipientsAcrossSessions(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	s2 := registerSession(t, module, "team-1", "beta")
	importMembers(t, module, "group-1", 24, true)

	// Bots never receive outreach; this one must be filtered out.
	_, err := module.Handler.ImportMembersHandler(context.Background(), "group-1", httptransport.ImportMembersRequest{
		Members: []httptransport.MemberPayload{{TelegramUserID: 9999, AccessHash: 1, FirstName: "Bot", IsBot: true}},
	})
	if err != nil {
		t.Fatalf("import bot member failed: %v", err)
	}

	campaignID := createCampaign(t, module, "team-1", "group-1", nil)
	startSync(t, module, campaignID, []string{s1, s2})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" {
		t.Fatalf("expected completed campaign, got %s", progress.Status)
	}
	if progress.Progress.Sent != 24 || progress.Progress.Failed != 0 || progress.Progress.Total != 24 {
		t.Fatalf("unexpected progress: %+v", progress.Progress)
	}

	sent := module.Connector.Sent()
	if len(sent) != 24 {
		t.Fatalf("expected 24 delivered messages, got %d", len(sent))
	}
	if got := len(module.Connector.SentBySession(s1)); got != 12 {
		t.Fatalf("expected even split, session %s got %d", s1, got)
	}
	if got := len(module.Connector.SentBySession(s2)); got != 12 {
		t.Fatalf("expected even split, session %s got %d", s2, got)
	}
	for _, message := range sent {
		if !strings.HasPrefix(message.Message, "Hey First") {
			t.Fatalf("template was not rendered: %q", message.Message)
		}
	}

	results, err := module.Handler.ListResultsHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("list results failed: %v", err)
	}
	if len(results.Items) != 24 {
		t.Fatalf("expected 24 results, got %d", len(results.Items))
	}
	for _, item := range results.Items {
		if item.Status != "sent" {
			t.Fatalf("expected sent result, got %+v", item)
		}
	}

	if !module.Connector.Disconnected(s1) || !module.Connector.Disconnected(s2) {
		t.Fatalf("expected both sessions disconnected after the run")
	}
}

func TestStartRejectsRunningAndCompletedCampaigns(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	uc := commands.StartCampaignUseCase{
		Campaigns: module.Store,
		Sessions:  module.Store,
		Engine:    module.Engine,
	}

	campaign, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	campaign.Status = entities.CampaignStatusRunning
	if err := module.Store.UpdateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("update campaign failed: %v", err)
	}
	err = uc.Execute(context.Background(), commands.StartCampaignCommand{CampaignID: campaignID, SessionIDs: []string{s1}})
	if !errors.Is(err, domainerrors.ErrCampaignAlreadyRunning) {
		t.Fatalf("expected already-running rejection, got %v", err)
	}

	campaign.Status = entities.CampaignStatusCompleted
	if err := module.Store.UpdateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("update campaign failed: %v", err)
	}
	err = uc.Execute(context.Background(), commands.StartCampaignCommand{CampaignID: campaignID, SessionIDs: []string{s1}})
	if !errors.Is(err, domainerrors.ErrCampaignCompleted) {
		t.Fatalf("expected completed rejection, got %v", err)
	}

	// Failed campaigns are the retry affordance and may start again.
	campaign.Status = entities.CampaignStatusFailed
	if err := module.Store.UpdateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("update campaign failed: %v", err)
	}
	if err := uc.Execute(context.Background(), commands.StartCampaignCommand{CampaignID: campaignID, SessionIDs: []string{s1}}); err != nil {
		t.Fatalf("expected failed campaign to restart, got %v", err)
	}
}

func TestStartFailsClosedWhenAnySessionIsUnavailable(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	s2 := registerSession(t, module, "team-1", "beta")
	importMembers(t, module, "group-1", 4, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	if err := module.Handler.DeactivateSessionHandler(context.Background(), s2); err != nil {
		t.Fatalf("deactivate session failed: %v", err)
	}

	uc := commands.StartCampaignUseCase{
		Campaigns: module.Store,
		Sessions:  module.Store,
		Engine:    module.Engine,
	}
	err := uc.Execute(context.Background(), commands.StartCampaignCommand{
		CampaignID: campaignID,
		SessionIDs: []string{s1, s2},
	})
	if !errors.Is(err, domainerrors.ErrSessionsUnavailable) {
		t.Fatalf("expected sessions-unavailable rejection, got %v", err)
	}

	err = uc.Execute(context.Background(), commands.StartCampaignCommand{
		CampaignID: campaignID,
		SessionIDs: []string{s1, "session-that-does-not-exist"},
	})
	if !errors.Is(err, domainerrors.ErrSessionsUnavailable) {
		t.Fatalf("expected sessions-unavailable rejection for unknown id, got %v", err)
	}

	if len(module.Connector.Sent()) != 0 {
		t.Fatalf("nothing may be sent when validation fails")
	}
}

func TestDispatchFailsWhenNoSessionsConnect(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	module.Connector.ConnectErrors[s1] = errors.New("auth key revoked")
	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "failed" {
		t.Fatalf("expected failed campaign, got %s", progress.Status)
	}
	if !strings.Contains(progress.Progress.Error, "no sessions could connect") {
		t.Fatalf("unexpected failure diagnostic: %q", progress.Progress.Error)
	}
	if !strings.Contains(progress.Progress.Error, s1) {
		t.Fatalf("diagnostic should name the attempted session: %q", progress.Progress.Error)
	}
}

func TestDispatchFailsWhenGroupHasNoMembers(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	campaignID := createCampaign(t, module, "team-1", "group-empty", nil)

	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "failed" {
		t.Fatalf("expected failed campaign, got %s", progress.Status)
	}
	if !strings.Contains(progress.Progress.Error, "contain no extracted members") {
		t.Fatalf("unexpected failure diagnostic: %q", progress.Progress.Error)
	}
}

func TestDispatchFailsWhenNoMemberHasAccessHash(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, false)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "failed" {
		t.Fatalf("expected failed campaign, got %s", progress.Status)
	}
	if !strings.Contains(progress.Progress.Error, "access hash") {
		t.Fatalf("unexpected failure diagnostic: %q", progress.Progress.Error)
	}
}

func TestDedupSkipsPreviouslyContactedMembers(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 24, true)

	// A finished earlier campaign already reached the first twelve members.
	previous := entities.Campaign{
		CampaignID:      "campaign-previous",
		TeamID:          "team-1",
		Name:            "Earlier wave",
		Status:          entities.CampaignStatusCompleted,
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "hello",
		CreatedAt:       testStart,
		UpdatedAt:       testStart,
	}
	if err := module.Store.CreateCampaign(context.Background(), previous); err != nil {
		t.Fatalf("seed previous campaign failed: %v", err)
	}
	for i := 0; i < 12; i++ {
		err := module.Store.AppendResult(context.Background(), entities.DeliveryResult{
			ResultID:     fmt.Sprintf("result-%d", i),
			CampaignID:   previous.CampaignID,
			SessionID:    s1,
			TargetUserID: int64(1000 + i),
			Status:       entities.ResultStatusSent,
			SentAt:       testStart,
		})
		if err != nil {
			t.Fatalf("seed previous result failed: %v", err)
		}
	}

	campaignID := createCampaign(t, module, "team-1", "group-1", nil)
	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" {
		t.Fatalf("expected completed campaign, got %s", progress.Status)
	}
	if progress.Progress.Sent != 12 || progress.Progress.Total != 12 {
		t.Fatalf("unexpected progress: %+v", progress.Progress)
	}
	if progress.Progress.DuplicatesExcluded != 12 {
		t.Fatalf("expected 12 duplicates excluded, got %d", progress.Progress.DuplicatesExcluded)
	}

	for _, message := range module.Connector.Sent() {
		if message.TelegramUserID < 1012 {
			t.Fatalf("previously contacted member %d was messaged again", message.TelegramUserID)
		}
	}
}

func TestDispatchFailsWhenEveryMemberIsDuplicate(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 4, true)

	previous := entities.Campaign{
		CampaignID:      "campaign-previous",
		TeamID:          "team-1",
		Name:            "Earlier wave",
		Status:          entities.CampaignStatusCompleted,
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "hello",
		CreatedAt:       testStart,
		UpdatedAt:       testStart,
	}
	if err := module.Store.CreateCampaign(context.Background(), previous); err != nil {
		t.Fatalf("seed previous campaign failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		err := module.Store.AppendResult(context.Background(), entities.DeliveryResult{
			ResultID:     fmt.Sprintf("result-%d", i),
			CampaignID:   previous.CampaignID,
			SessionID:    s1,
			TargetUserID: int64(1000 + i),
			Status:       entities.ResultStatusSent,
			SentAt:       testStart,
		})
		if err != nil {
			t.Fatalf("seed previous result failed: %v", err)
		}
	}

	campaignID := createCampaign(t, module, "team-1", "group-1", nil)
	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "failed" {
		t.Fatalf("expected failed campaign, got %s", progress.Status)
	}
	if !strings.Contains(progress.Progress.Error, "already contacted") {
		t.Fatalf("unexpected failure diagnostic: %q", progress.Progress.Error)
	}
}

func TestFloodErrorTriggersHourLongCooldownThenRecovers(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 6, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	module.Connector.SendScripts[s1] = []error{
		&ports.SendError{Code: ports.SendErrorFlood, Message: "PEER_FLOOD (caused by messages.SendMessage)"},
	}

	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" {
		t.Fatalf("expected completed campaign, got %s", progress.Status)
	}
	if progress.Progress.Sent != 5 || progress.Progress.Failed != 1 {
		t.Fatalf("unexpected progress after flood: %+v", progress.Progress)
	}
	if longest := module.Sleeper.LongestSleep(); longest < time.Hour {
		t.Fatalf("expected an hour-long cooldown sleep, longest was %s", longest)
	}
}

func TestCircuitBreakerStopsOneWorkerWithoutKillingTheCampaign(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	s2 := registerSession(t, module, "team-1", "beta")
	importMembers(t, module, "group-1", 24, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	script := make([]error, 0, 10)
	for i := 0; i < 10; i++ {
		script = append(script, &ports.SendError{Code: ports.SendErrorUnknown, Message: "INTERNAL_SERVER_ERROR"})
	}
	module.Connector.SendScripts[s1] = script

	startSync(t, module, campaignID, []string{s1, s2})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" {
		t.Fatalf("expected completed campaign, got %s", progress.Status)
	}
	if progress.Progress.Failed != 10 {
		t.Fatalf("expected 10 failures before the breaker opened, got %d", progress.Progress.Failed)
	}
	if progress.Progress.Sent != 12 {
		t.Fatalf("expected the healthy session to finish its batch, sent=%d", progress.Progress.Sent)
	}
	if got := len(module.Connector.SentBySession(s1)); got != 0 {
		t.Fatalf("broken session should deliver nothing, delivered %d", got)
	}
	if got := len(module.Connector.SentBySession(s2)); got != 12 {
		t.Fatalf("healthy session should deliver its full batch, delivered %d", got)
	}
	// Consecutive failures walk the exponential backoff up to its 2h ceiling.
	if longest := module.Sleeper.LongestSleep(); longest < 2*time.Hour {
		t.Fatalf("expected backoff to reach its ceiling, longest sleep was %s", longest)
	}
}

func TestInvalidTargetDoesNotTripTheCircuitBreaker(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	importMembers(t, module, "group-1", 15, true)
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	script := make([]error, 0, 12)
	for i := 0; i < 12; i++ {
		script = append(script, &ports.SendError{Code: ports.SendErrorInvalidTarget, Message: "USER_ID_INVALID"})
	}
	module.Connector.SendScripts[s1] = script

	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" {
		t.Fatalf("expected completed campaign, got %s", progress.Status)
	}
	if progress.Progress.Failed != 12 || progress.Progress.Sent != 3 {
		t.Fatalf("unexpected progress: %+v", progress.Progress)
	}
}

func TestResolveFallsBackFromUsernameToPeerLookup(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	_, err := module.Handler.ImportMembersHandler(context.Background(), "group-1", httptransport.ImportMembersRequest{
		Members: []httptransport.MemberPayload{
			{TelegramUserID: 2000, Username: "ada", AccessHash: 7000, FirstName: "Ada"},
		},
	})
	if err != nil {
		t.Fatalf("import member failed: %v", err)
	}
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	// The username lookup is stale; the peer lookup from id plus access hash
	// must pick the recipient up.
	module.Connector.ResolveScripts[s1] = []error{errors.New("USERNAME_NOT_OCCUPIED")}
	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" || progress.Progress.Sent != 1 {
		t.Fatalf("expected one delivered message, got %s %+v", progress.Status, progress.Progress)
	}

	calls := module.Connector.ResolveCalls(s1)
	if len(calls) != 2 {
		t.Fatalf("expected two resolution attempts, got %d", len(calls))
	}
	if calls[0].Username != "ada" || calls[0].TelegramUserID != 0 {
		t.Fatalf("first attempt must be the username tier, got %+v", calls[0])
	}
	if calls[1].TelegramUserID != 2000 || calls[1].AccessHash != 7000 || calls[1].Username != "" {
		t.Fatalf("second attempt must be the peer tier, got %+v", calls[1])
	}
	sent := module.Connector.Sent()
	if len(sent) != 1 || sent[0].TelegramUserID != 2000 {
		t.Fatalf("message must go to the peer entity, got %+v", sent)
	}
}

func TestUnresolvableRecipientRecordsUserNotFound(t *testing.T) {
	module := newTestModule()
	s1 := registerSession(t, module, "team-1", "alpha")
	_, err := module.Handler.ImportMembersHandler(context.Background(), "group-1", httptransport.ImportMembersRequest{
		Members: []httptransport.MemberPayload{
			{TelegramUserID: 2000, Username: "ada", AccessHash: 7000, FirstName: "Ada"},
		},
	})
	if err != nil {
		t.Fatalf("import member failed: %v", err)
	}
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	module.Connector.ResolveScripts[s1] = []error{
		errors.New("USERNAME_NOT_OCCUPIED"),
		errors.New("PEER_ID_INVALID"),
		errors.New("PEER_ID_INVALID"),
	}
	startSync(t, module, campaignID, []string{s1})

	progress := getProgress(t, module, campaignID)
	if progress.Status != "completed" {
		t.Fatalf("an unreachable recipient must not fail the run, got %s", progress.Status)
	}
	if progress.Progress.Sent != 0 || progress.Progress.Failed != 1 {
		t.Fatalf("unexpected progress: %+v", progress.Progress)
	}

	calls := module.Connector.ResolveCalls(s1)
	if len(calls) != 3 {
		t.Fatalf("expected all three resolution tiers, got %d attempts", len(calls))
	}
	if calls[2].TelegramUserID != 2000 || calls[2].AccessHash != 0 || calls[2].Username != "" {
		t.Fatalf("last attempt must be the bare id tier, got %+v", calls[2])
	}
	if len(module.Connector.Sent()) != 0 {
		t.Fatalf("nothing may be sent to an unresolved recipient")
	}

	results, err := module.Handler.ListResultsHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("list results failed: %v", err)
	}
	if len(results.Items) != 1 || results.Items[0].Status != "failed" {
		t.Fatalf("expected one failed result, got %+v", results.Items)
	}
	if !strings.Contains(results.Items[0].ErrorMessage, "user not found, possibly blocked") {
		t.Fatalf("unexpected result error: %q", results.Items[0].ErrorMessage)
	}
}

func TestPauseCommandOnlyInterruptsRunningCampaigns(t *testing.T) {
	module := newTestModule()
	registerSession(t, module, "team-1", "alpha")
	campaignID := createCampaign(t, module, "team-1", "group-1", nil)

	err := module.Handler.PauseCampaignHandler(context.Background(), campaignID)
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected transition rejection for draft campaign, got %v", err)
	}

	campaign, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	campaign.Status = entities.CampaignStatusRunning
	if err := module.Store.UpdateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("update campaign failed: %v", err)
	}

	if err := module.Handler.PauseCampaignHandler(context.Background(), campaignID); err != nil {
		t.Fatalf("pause running campaign failed: %v", err)
	}
	paused, err := module.Store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if paused.Status != entities.CampaignStatusPaused {
		t.Fatalf("expected paused status, got %s", paused.Status)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	module := newTestModule()

	_, err := module.Handler.CreateCampaignHandler(context.Background(), "team-1", httptransport.CreateCampaignRequest{
		Name:            "",
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "hello",
	})
	if !errors.Is(err, domainerrors.ErrInvalidCampaignInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}

	_, err = module.Handler.CreateCampaignHandler(context.Background(), "team-1", httptransport.CreateCampaignRequest{
		Name:            "No groups",
		TargetGroups:    nil,
		MessageTemplate: "hello",
	})
	if !errors.Is(err, domainerrors.ErrInvalidCampaignInput) {
		t.Fatalf("expected invalid input for missing groups, got %v", err)
	}

	_, err = module.Handler.CreateCampaignHandler(context.Background(), "team-1", httptransport.CreateCampaignRequest{
		Name:            "Past schedule",
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "hello",
		ScheduledAt:     testStart.Add(-time.Hour).Format(time.RFC3339),
	})
	if !errors.Is(err, domainerrors.ErrInvalidCampaignInput) {
		t.Fatalf("expected invalid input for past schedule, got %v", err)
	}

	resp, err := module.Handler.CreateCampaignHandler(context.Background(), "team-1", httptransport.CreateCampaignRequest{
		Name:            "Future schedule",
		TargetGroups:    []string{"group-1"},
		MessageTemplate: "hello",
		ScheduledAt:     testStart.Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create scheduled campaign failed: %v", err)
	}
	if resp.Campaign.Status != string(entities.CampaignStatusScheduled) {
		t.Fatalf("expected scheduled status, got %s", resp.Campaign.Status)
	}
}
