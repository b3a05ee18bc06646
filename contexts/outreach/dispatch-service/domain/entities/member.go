package entities

import "time"

// Member is a target recipient extracted from a Telegram group. Read-only to
// the dispatch engine. AccessHash 0 means the hash is not known, which rules
// the member out of direct peer resolution.
type Member struct {
	MemberID       string
	GroupID        string
	TelegramUserID int64
	Username       string
	AccessHash     int64
	FirstName      string
	LastName       string
	IsBot          bool
	ExtractedAt    time.Time
}

// HasAccessHash reports whether the member can be resolved as a direct peer.
func (m Member) HasAccessHash() bool {
	return m.AccessHash != 0
}
