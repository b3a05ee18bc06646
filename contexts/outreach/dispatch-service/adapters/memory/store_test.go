package memory

import (
	"context"
	"testing"
	"time"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

func TestListSentTargetsCollectsTeamHistory(t *testing.T) {
	ctx := context.Background()
	store := NewStore([]entities.Campaign{
		{CampaignID: "old", TeamID: "team-1", Status: entities.CampaignStatusCompleted},
		{CampaignID: "draft", TeamID: "team-1", Status: entities.CampaignStatusDraft},
		{CampaignID: "other-team", TeamID: "team-2", Status: entities.CampaignStatusCompleted},
		{CampaignID: "new", TeamID: "team-1", Status: entities.CampaignStatusRunning},
	})

	results := []entities.DeliveryResult{
		{ResultID: "r1", CampaignID: "old", TargetUserID: 100, TargetUsername: "Alice", Status: entities.ResultStatusSent},
		{ResultID: "r2", CampaignID: "old", TargetUserID: 101, Status: entities.ResultStatusFailed},
		{ResultID: "r3", CampaignID: "draft", TargetUserID: 102, Status: entities.ResultStatusSent},
		{ResultID: "r4", CampaignID: "other-team", TargetUserID: 103, Status: entities.ResultStatusSent},
		{ResultID: "r5", CampaignID: "new", TargetUserID: 104, Status: entities.ResultStatusSent},
	}
	for _, result := range results {
		if err := store.AppendResult(ctx, result); err != nil {
			t.Fatalf("append result: %v", err)
		}
	}

	targets, err := store.ListSentTargets(ctx, "team-1", "new")
	if err != nil {
		t.Fatalf("list sent targets: %v", err)
	}
	if _, ok := targets.UserIDs[100]; !ok {
		t.Fatal("expected user 100 from a completed team campaign")
	}
	if _, ok := targets.Usernames["alice"]; !ok {
		t.Fatal("expected lowercased username alice")
	}
	if _, ok := targets.UserIDs[101]; ok {
		t.Fatal("failed results must not enter the dedup set")
	}
	if _, ok := targets.UserIDs[102]; ok {
		t.Fatal("draft campaigns must not enter the dedup set")
	}
	if _, ok := targets.UserIDs[103]; ok {
		t.Fatal("other teams must not enter the dedup set")
	}
	if _, ok := targets.UserIDs[104]; ok {
		t.Fatal("the excluded campaign must not dedup against itself")
	}
}

func TestListDueScheduledFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-2 * time.Hour)
	earliest := now.Add(-4 * time.Hour)
	later := now.Add(time.Hour)

	store := NewStore([]entities.Campaign{
		{CampaignID: "due-2", Status: entities.CampaignStatusScheduled, ScheduledAt: &earlier},
		{CampaignID: "due-1", Status: entities.CampaignStatusScheduled, ScheduledAt: &earliest},
		{CampaignID: "future", Status: entities.CampaignStatusScheduled, ScheduledAt: &later},
		{CampaignID: "draft", Status: entities.CampaignStatusDraft, ScheduledAt: &earliest},
	})

	due, err := store.ListDueScheduled(ctx, now, 10)
	if err != nil {
		t.Fatalf("list due scheduled: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due campaigns, got %d", len(due))
	}
	if due[0].CampaignID != "due-1" || due[1].CampaignID != "due-2" {
		t.Fatalf("expected oldest first, got %s then %s", due[0].CampaignID, due[1].CampaignID)
	}
}

func TestListSessionsFailClosedInputs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	sessions := []entities.Session{
		{SessionID: "s1", TeamID: "team-1", IsActive: true},
		{SessionID: "s2", TeamID: "team-1", IsActive: false},
		{SessionID: "s3", TeamID: "team-2", IsActive: true},
	}
	for _, session := range sessions {
		if err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	got, err := store.ListSessions(ctx, ports.SessionFilter{
		SessionIDs: []string{"s1", "s2", "s3"},
		TeamID:     "team-1",
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(got) != 1 || got[0].SessionID != "s1" {
		t.Fatalf("expected only s1, got %v", got)
	}
}

func TestUpsertMembersKeepsStableIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	first := entities.Member{MemberID: "m1", GroupID: "g1", TelegramUserID: 100, Username: "old"}
	if err := store.UpsertMembers(ctx, []entities.Member{first}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := entities.Member{MemberID: "m2", GroupID: "g1", TelegramUserID: 100, Username: "new"}
	if err := store.UpsertMembers(ctx, []entities.Member{second}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	members, err := store.ListMembers(ctx, ports.MemberFilter{GroupIDs: []string{"g1"}})
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected one member after re-import, got %d", len(members))
	}
	if members[0].MemberID != "m1" || members[0].Username != "new" {
		t.Fatalf("expected stable id with refreshed fields, got %+v", members[0])
	}
}
