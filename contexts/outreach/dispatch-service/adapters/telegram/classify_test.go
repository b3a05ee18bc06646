package telegram

import (
	"errors"
	"testing"

	"herald/contexts/outreach/dispatch-service/ports"
)

func TestClassifyMapsProviderVocabulary(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"telegram: PEER_ID_INVALID (400)", ports.SendErrorInvalidTarget},
		{"telegram: chat not found (400)", ports.SendErrorInvalidTarget},
		{"telegram: user is deactivated", ports.SendErrorInvalidTarget},
		{"telegram: PEER_FLOOD (429)", ports.SendErrorFlood},
		{"telegram: Too Many Requests: retry after 35 (429)", ports.SendErrorFlood},
		{"telegram: FLOOD_WAIT_35", ports.SendErrorFlood},
		{"telegram: USER_NOT_PARTICIPANT (400)", ports.SendErrorNotMember},
		{"telegram: Unauthorized (401)", ports.SendErrorUnauthorized},
		{"telegram: Forbidden: bot was blocked by the user (403)", ports.SendErrorUnauthorized},
		{"telegram: Internal Server Error (500)", ports.SendErrorUnknown},
	}
	for _, tc := range cases {
		got := classify(errors.New(tc.message))
		if got.Code != tc.want {
			t.Fatalf("classify(%q): expected code %s, got %s", tc.message, tc.want, got.Code)
		}
		if got.Message != tc.message {
			t.Fatalf("classify(%q): original message must be preserved, got %q", tc.message, got.Message)
		}
	}
}

func TestClassifyFloodWinsOverUnknown(t *testing.T) {
	got := classify(errors.New("telegram: Too Many Requests: PEER_FLOOD while sending"))
	if got.Code != ports.SendErrorFlood {
		t.Fatalf("expected flood, got %s", got.Code)
	}
}
