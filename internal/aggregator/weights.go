package aggregator

import (
	"math"

	"github.com/smashcc/startgg-metrics/internal/model"
)

// Tunable weighting constants. These are heuristics, not fitted parameters;
// changing them changes every weighted metric downstream.
const (
	// recencyDecayDays controls the exponential decay applied to event age.
	recencyDecayDays = 90.0
	// weightFloor guarantees every counted set a non-zero influence.
	weightFloor = 0.1
)

// eventWeight combines event size and recency into a single importance
// scalar. Larger events weigh more (log2 of entrant count) and older events
// decay exponentially. Events with no reported start time are treated as
// happening now; events with at most one entrant fall back to a size weight
// of 1.0 — the fallback triggers only when log2(entrants+1) is exactly zero,
// never for small positive values.
func eventWeight(entrants int, startAt, now int64) float64 {
	sizeWeight := math.Log2(float64(entrants) + 1)
	if sizeWeight == 0 {
		sizeWeight = 1.0
	}
	if startAt == 0 {
		startAt = now
	}
	recencyDays := float64(now-startAt) / 86400
	if recencyDays < 0 {
		recencyDays = 0
	}
	recencyWeight := math.Exp(-recencyDays / recencyDecayDays)
	return math.Max(weightFloor, sizeWeight*recencyWeight)
}

// opponentStrength converts an opponent's seed or placement into a
// normalized strength score in (0, 1], preferring seed when both are known.
// This is an inverse-rank proxy, not a calibrated probability. Returns nil
// when neither value is available.
func opponentStrength(set model.SetOutcome) *float64 {
	if set.OpponentSeed != nil && *set.OpponentSeed != 0 {
		v := 1.0 / float64(*set.OpponentSeed)
		return &v
	}
	if set.OpponentPlacement != nil && *set.OpponentPlacement != 0 {
		v := 1.0 / float64(*set.OpponentPlacement)
		return &v
	}
	return nil
}
