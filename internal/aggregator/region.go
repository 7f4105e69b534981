package aggregator

import "strings"

// unknownState is the tally bucket for tournaments whose state code is
// present but blank after normalization. It never wins an inference.
const unknownState = "UNKNOWN"

// inferConfidenceThreshold is the share of tallied events the top state must
// exceed (strictly) before it is accepted as the inferred home state.
const inferConfidenceThreshold = 0.5

// normalizeState uppercases and trims a state code. Returns "" for unusable
// input.
func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// inferState picks a home state from the per-state event tally. The top
// state is the one with the highest count; among equal counts the
// lexicographically smallest state is examined, which keeps the result
// deterministic (a tie can never clear the >0.5 share bar anyway, so the
// tie-break only decides which candidate gets rejected). Returns the
// inferred state (empty if none qualifies), its confidence, and the total
// number of tallied events.
func inferState(counts map[string]int) (state string, confidence float64, total int) {
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return "", 0, 0
	}

	top, topCount := "", 0
	for s, n := range counts {
		if n > topCount || (n == topCount && s < top) {
			top, topCount = s, n
		}
	}
	if top == unknownState {
		return "", 0, total
	}
	share := float64(topCount) / float64(total)
	if share <= inferConfidenceThreshold {
		return "", 0, total
	}
	return top, share, total
}
