package errors

import "errors"

var (
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrInvalidCampaignInput    = errors.New("invalid campaign input")
	ErrCampaignAlreadyRunning  = errors.New("campaign is already running")
	ErrCampaignCompleted       = errors.New("campaign is already completed")
	ErrInvalidStateTransition  = errors.New("invalid campaign state transition")
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionsUnavailable     = errors.New("one or more requested sessions are missing, inactive or belong to another team")
	ErrInvalidSessionInput     = errors.New("invalid session input")
	ErrInvalidMemberInput      = errors.New("invalid member input")
	ErrNoSessionsConnected     = errors.New("no sessions could connect")
	ErrNoGroupMembers          = errors.New("target groups have no members")
	ErrNoMembersWithAccessHash = errors.New("no group members have an access hash")
	ErrAllRecipientsDuplicates = errors.New("all eligible members were already contacted in previous campaigns")
)
