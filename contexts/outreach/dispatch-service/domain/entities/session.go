package entities

import "time"

// Session is a sending identity. Credentials is an opaque blob the messenger
// adapter interprets; the engine never looks inside it.
//
// ActivityScore, Reliability and CurrentLoad are runtime-only hints for the
// weighted distribution strategy. Nil score/reliability means "not tracked"
// and resolves to a neutral 50.
type Session struct {
	SessionID   string
	TeamID      string
	Label       string
	IsActive    bool
	Credentials string

	ActivityScore *float64
	Reliability   *float64
	CurrentLoad   float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

const NeutralSessionScore = 50.0

func (s Session) EffectiveActivityScore() float64 {
	if s.ActivityScore == nil {
		return NeutralSessionScore
	}
	return *s.ActivityScore
}

func (s Session) EffectiveReliability() float64 {
	if s.Reliability == nil {
		return NeutralSessionScore
	}
	return *s.Reliability
}
