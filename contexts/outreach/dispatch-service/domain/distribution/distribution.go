// Package distribution partitions a recipient list across sending sessions.
// The output is always an exhaustive partition: every member lands in exactly
// one session's list.
package distribution

import (
	"math/rand"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/domain/policy"
)

const (
	activityWeight    = 0.4
	reliabilityWeight = 0.6
)

// Distribute assigns members to sessions under the given strategy. Every
// session is first topped up to minPerSession (pulled round-robin from the
// front of the list); the remainder follows the strategy. When supply is too
// scarce to give every session the floor, the whole list is dealt round-robin
// regardless of strategy so no session is left empty.
func Distribute(
	members []entities.Member,
	sessions []entities.Session,
	strategy policy.DistributionStrategy,
	minPerSession int,
	rng *rand.Rand,
) map[string][]entities.Member {
	assigned := make(map[string][]entities.Member, len(sessions))
	for _, session := range sessions {
		assigned[session.SessionID] = nil
	}
	if len(sessions) == 0 || len(members) == 0 {
		return assigned
	}
	if len(sessions) == 1 {
		assigned[sessions[0].SessionID] = append([]entities.Member(nil), members...)
		return assigned
	}
	if minPerSession < 0 {
		minPerSession = 0
	}

	if len(members) < len(sessions)*minPerSession {
		for i, member := range members {
			id := sessions[i%len(sessions)].SessionID
			assigned[id] = append(assigned[id], member)
		}
		return assigned
	}

	pool := append([]entities.Member(nil), members...)
	if strategy == policy.StrategyRandom {
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}

	next := 0
	for round := 0; round < minPerSession; round++ {
		for _, session := range sessions {
			assigned[session.SessionID] = append(assigned[session.SessionID], pool[next])
			next++
		}
	}

	remainder := pool[next:]
	switch strategy {
	case policy.StrategyRandom:
		for _, member := range remainder {
			id := sessions[rng.Intn(len(sessions))].SessionID
			assigned[id] = append(assigned[id], member)
		}
	case policy.StrategyWeighted:
		weights := normalizedWeights(sessions)
		for _, member := range remainder {
			id := sessions[pickWeighted(weights, rng)].SessionID
			assigned[id] = append(assigned[id], member)
		}
	case policy.StrategyEqual:
		fallthrough
	default:
		for i, member := range remainder {
			id := sessions[(next+i)%len(sessions)].SessionID
			assigned[id] = append(assigned[id], member)
		}
	}
	return assigned
}

// normalizedWeights converts session health metadata into a probability
// distribution. Untracked scores resolve to the neutral 50, so a fresh pool
// degenerates to an even split.
func normalizedWeights(sessions []entities.Session) []float64 {
	weights := make([]float64, len(sessions))
	total := 0.0
	for i, session := range sessions {
		weight := (session.EffectiveActivityScore()*activityWeight +
			session.EffectiveReliability()*reliabilityWeight) /
			(1 + session.CurrentLoad/100)
		if weight <= 0 {
			weight = 1e-9
		}
		weights[i] = weight
		total += weight
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// pickWeighted draws a session index by inverse-CDF sampling.
func pickWeighted(weights []float64, rng *rand.Rand) int {
	r := rng.Float64()
	cumulative := 0.0
	for i, weight := range weights {
		cumulative += weight
		if cumulative >= r {
			return i
		}
	}
	return len(weights) - 1
}
