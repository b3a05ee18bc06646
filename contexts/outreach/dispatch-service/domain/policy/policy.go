// Package policy computes the anti-detection dispatch policy: how many
// members a run targets, how long a session waits between sends, when the
// engine takes an extra pause, and how failure backoff grows.
//
// All functions are pure and deterministic given the supplied random source.
// Configuration is merged shallowly per section: an absent section falls back
// to the default section entirely, a present section overrides only the
// fields it sets.
package policy

import (
	"math"
	"math/rand"
	"time"
)

type SelectionMode string

const (
	SelectionAbsolute SelectionMode = "absolute"
	SelectionPercent  SelectionMode = "percent"
	SelectionRandom   SelectionMode = "random"
	SelectionAuto     SelectionMode = "auto"
)

type DistributionStrategy string

const (
	StrategyEqual    DistributionStrategy = "equal"
	StrategyRandom   DistributionStrategy = "random"
	StrategyWeighted DistributionStrategy = "weighted"
)

// Safe baseline. These values encode the anti-ban policy; they are pinned by
// tests and must not drift.
const (
	DefaultDelayMinSec       = 8
	DefaultDelayMaxSec       = 20
	DefaultMaxPerHour        = 15
	DefaultPauseProbability  = 0.1
	DefaultBackoffInitialSec = 180
	DefaultBackoffFactor     = 2.0
	DefaultBackoffMaxSec     = 7200

	DefaultSelectionPercent = 0.2
	DefaultMaxMembers       = 1000
	DefaultRandomMin        = 50
	DefaultRandomMax        = 200
	DefaultMinPerSession    = 1

	// Small groups (< autoSmallGroupLimit members) are hard-capped at
	// autoSmallGroupCap targets in auto mode. The exact constants come from
	// operational experience with ban rates and are kept as-is rather than
	// re-derived.
	AutoSmallGroupLimit = 500
	AutoSmallGroupCap   = 200

	// Extra anti-detection pause window, layered on top of the per-message
	// delay when ShouldPause fires.
	PauseExtraMinSec = 15
	PauseExtraMaxSec = 45
)

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Config is the raw, serialized campaign policy. Pointer fields distinguish
// "absent, use default" from an explicit zero.
type Config struct {
	MemberSelection *MemberSelectionConfig `json:"member_selection,omitempty"`
	Timing          *TimingConfig          `json:"timing,omitempty"`
	Sessions        *SessionsConfig        `json:"sessions,omitempty"`
	AntiDetection   *AntiDetectionConfig   `json:"anti_detection,omitempty"`
	Dedup           *DedupConfig           `json:"dedup,omitempty"`
}

type MemberSelectionConfig struct {
	Mode       *SelectionMode `json:"mode,omitempty"`
	MaxMembers *int           `json:"max_members,omitempty"`
	Percent    *float64       `json:"percent,omitempty"`
	RandomMin  *int           `json:"random_min,omitempty"`
	RandomMax  *int           `json:"random_max,omitempty"`
}

type TimingConfig struct {
	RandomRangeSec *Range `json:"random_range_sec,omitempty"`

	// Per-session override: when set, delay = base ± uniform jitter instead
	// of the shared random range.
	SessionDelayBaseSec   *float64 `json:"session_delay_base_sec,omitempty"`
	SessionDelayJitterSec *float64 `json:"session_delay_jitter_sec,omitempty"`
}

type SessionsConfig struct {
	MaxMessagesPerHour *int                  `json:"max_messages_per_hour,omitempty"`
	Strategy           *DistributionStrategy `json:"distribution_strategy,omitempty"`
	MinPerSession      *int                  `json:"min_per_session,omitempty"`
}

type AntiDetectionConfig struct {
	PauseProbability *float64       `json:"pause_probability,omitempty"`
	Backoff          *BackoffConfig `json:"backoff,omitempty"`
}

type BackoffConfig struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	InitialSec *int     `json:"initial_sec,omitempty"`
	Factor     *float64 `json:"factor,omitempty"`
	MaxSec     *int     `json:"max_sec,omitempty"`
}

type DedupConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// Resolved is the effective policy after defaults are applied. All fields are
// concrete; the dispatch engine only ever sees this form.
type Resolved struct {
	MemberSelection ResolvedMemberSelection
	Timing          ResolvedTiming
	Sessions        ResolvedSessions
	AntiDetection   ResolvedAntiDetection
	Dedup           ResolvedDedup
}

type ResolvedMemberSelection struct {
	Mode       SelectionMode
	MaxMembers int
	Percent    float64
	RandomMin  int
	RandomMax  int
}

type ResolvedTiming struct {
	RandomRangeSec        Range
	SessionDelayBaseSec   float64
	SessionDelayJitterSec float64
	HasSessionOverride    bool
}

type ResolvedSessions struct {
	MaxMessagesPerHour int
	Strategy           DistributionStrategy
	MinPerSession      int
}

type ResolvedAntiDetection struct {
	PauseProbability float64
	Backoff          ResolvedBackoff
}

type ResolvedBackoff struct {
	Enabled    bool
	InitialSec int
	Factor     float64
	MaxSec     int
}

type ResolvedDedup struct {
	Enabled bool
}

// Defaults returns the safe baseline policy.
func Defaults() Resolved {
	return Resolved{
		MemberSelection: ResolvedMemberSelection{
			Mode:       SelectionAuto,
			MaxMembers: DefaultMaxMembers,
			Percent:    DefaultSelectionPercent,
			RandomMin:  DefaultRandomMin,
			RandomMax:  DefaultRandomMax,
		},
		Timing: ResolvedTiming{
			RandomRangeSec: Range{Min: DefaultDelayMinSec, Max: DefaultDelayMaxSec},
		},
		Sessions: ResolvedSessions{
			MaxMessagesPerHour: DefaultMaxPerHour,
			Strategy:           StrategyEqual,
			MinPerSession:      DefaultMinPerSession,
		},
		AntiDetection: ResolvedAntiDetection{
			PauseProbability: DefaultPauseProbability,
			Backoff: ResolvedBackoff{
				Enabled:    true,
				InitialSec: DefaultBackoffInitialSec,
				Factor:     DefaultBackoffFactor,
				MaxSec:     DefaultBackoffMaxSec,
			},
		},
		Dedup: ResolvedDedup{Enabled: true},
	}
}

// Resolve merges cfg over the defaults. A nil cfg yields the defaults.
func Resolve(cfg *Config) Resolved {
	resolved := Defaults()
	if cfg == nil {
		return resolved
	}

	if section := cfg.MemberSelection; section != nil {
		if section.Mode != nil {
			resolved.MemberSelection.Mode = *section.Mode
		}
		if section.MaxMembers != nil {
			resolved.MemberSelection.MaxMembers = *section.MaxMembers
		}
		if section.Percent != nil {
			resolved.MemberSelection.Percent = *section.Percent
		}
		if section.RandomMin != nil {
			resolved.MemberSelection.RandomMin = *section.RandomMin
		}
		if section.RandomMax != nil {
			resolved.MemberSelection.RandomMax = *section.RandomMax
		}
	}
	if section := cfg.Timing; section != nil {
		if section.RandomRangeSec != nil {
			resolved.Timing.RandomRangeSec = *section.RandomRangeSec
		}
		if section.SessionDelayBaseSec != nil {
			resolved.Timing.SessionDelayBaseSec = *section.SessionDelayBaseSec
			resolved.Timing.HasSessionOverride = true
		}
		if section.SessionDelayJitterSec != nil {
			resolved.Timing.SessionDelayJitterSec = *section.SessionDelayJitterSec
		}
	}
	if section := cfg.Sessions; section != nil {
		if section.MaxMessagesPerHour != nil {
			resolved.Sessions.MaxMessagesPerHour = *section.MaxMessagesPerHour
		}
		if section.Strategy != nil {
			resolved.Sessions.Strategy = *section.Strategy
		}
		if section.MinPerSession != nil {
			resolved.Sessions.MinPerSession = *section.MinPerSession
		}
	}
	if section := cfg.AntiDetection; section != nil {
		if section.PauseProbability != nil {
			resolved.AntiDetection.PauseProbability = *section.PauseProbability
		}
		if backoff := section.Backoff; backoff != nil {
			if backoff.Enabled != nil {
				resolved.AntiDetection.Backoff.Enabled = *backoff.Enabled
			}
			if backoff.InitialSec != nil {
				resolved.AntiDetection.Backoff.InitialSec = *backoff.InitialSec
			}
			if backoff.Factor != nil {
				resolved.AntiDetection.Backoff.Factor = *backoff.Factor
			}
			if backoff.MaxSec != nil {
				resolved.AntiDetection.Backoff.MaxSec = *backoff.MaxSec
			}
		}
	}
	if section := cfg.Dedup; section != nil {
		if section.Enabled != nil {
			resolved.Dedup.Enabled = *section.Enabled
		}
	}
	return resolved
}

// TargetCount computes how many members this run targets out of totalMembers.
// The result is always within [0, totalMembers].
func TargetCount(totalMembers int, selection ResolvedMemberSelection, rng *rand.Rand) int {
	if totalMembers <= 0 {
		return 0
	}

	var target int
	switch selection.Mode {
	case SelectionAbsolute:
		target = min(selection.MaxMembers, totalMembers)
	case SelectionPercent:
		target = int(math.Floor(float64(totalMembers) * selection.Percent))
	case SelectionRandom:
		low, high := selection.RandomMin, selection.RandomMax
		if high < low {
			low, high = high, low
		}
		target = low + rng.Intn(high-low+1)
	case SelectionAuto:
		fallthrough
	default:
		byPercent := int(math.Floor(float64(totalMembers) * selection.Percent))
		if totalMembers < AutoSmallGroupLimit {
			target = min(byPercent, AutoSmallGroupCap)
		} else {
			target = min(selection.MaxMembers, byPercent)
		}
	}

	if target < 0 {
		target = 0
	}
	return min(target, totalMembers)
}

// Delay returns the wait between two consecutive sends on one session. The
// per-session base/jitter override takes precedence over the shared range.
func Delay(timing ResolvedTiming, rng *rand.Rand) time.Duration {
	if timing.HasSessionOverride {
		jitter := timing.SessionDelayJitterSec
		seconds := timing.SessionDelayBaseSec + (rng.Float64()*2-1)*jitter
		if seconds < 0 {
			seconds = 0
		}
		return secondsToDuration(seconds)
	}
	low, high := timing.RandomRangeSec.Min, timing.RandomRangeSec.Max
	if high < low {
		low, high = high, low
	}
	return secondsToDuration(low + rng.Float64()*(high-low))
}

// ShouldPause draws the anti-detection pause decision.
func ShouldPause(anti ResolvedAntiDetection, rng *rand.Rand) bool {
	return rng.Float64() < anti.PauseProbability
}

// PauseExtra returns the additional sleep taken when ShouldPause fires.
func PauseExtra(rng *rand.Rand) time.Duration {
	return secondsToDuration(PauseExtraMinSec + rng.Float64()*(PauseExtraMaxSec-PauseExtraMinSec))
}

// Backoff returns the cooldown after consecutiveErrors non-fatal failures on
// one session: min(initial * factor^consecutiveErrors, max).
func Backoff(consecutiveErrors int, backoff ResolvedBackoff) time.Duration {
	if consecutiveErrors < 0 {
		consecutiveErrors = 0
	}
	seconds := float64(backoff.InitialSec) * math.Pow(backoff.Factor, float64(consecutiveErrors))
	if capSec := float64(backoff.MaxSec); seconds > capSec {
		seconds = capSec
	}
	return secondsToDuration(seconds)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
