// Package aggregator folds per-player, per-event match records into a
// sorted table of player metrics. It performs no I/O and raises no errors:
// absent optional fields are legitimate "unknown" states, and sets without a
// recorded winner are skipped rather than failed on.
package aggregator

import (
	"sort"
	"strings"
	"time"

	"github.com/smashcc/startgg-metrics/internal/model"
)

// Options configures an aggregation run.
type Options struct {
	// TargetCharacter is matched case-insensitively against the characters
	// used in each set to build the character-specific splits.
	TargetCharacter string
	// AssumeTargetMain treats a player's whole body of sets as target-
	// character sets when no explicit character data exists for them.
	AssumeTargetMain bool
	// Now anchors recency weighting; the zero value means time.Now().
	Now time.Time
}

// Accumulator holds the running sums for one player. It is built
// incrementally by Fold and is safe to combine with Merge: every tracked
// quantity is a sum, count, list append, set union, or max, so partial
// accumulators from any record partition fold to the same totals.
type Accumulator struct {
	playerID int
	gamerTag string
	// homeState is taken from the first record seen for the player, matching
	// the one-profile-per-player assumption upstream.
	homeState string

	eventsPlayed int
	tournaments  map[string]struct{}

	setsPlayed   int
	wins         int
	weightedWins float64
	weightSum    float64

	seedDeltas   []float64
	oppStrengths []float64
	eventSizes   []int

	setsVsHigherSeed int
	winsVsHigherSeed int

	charSets         int
	charWins         int
	charWeightedWins float64
	charWeightSum    float64

	latestEventStart int64
	stateCounts      map[string]int
}

func newAccumulator(rec model.MatchRecord) *Accumulator {
	return &Accumulator{
		playerID:    rec.PlayerID,
		gamerTag:    rec.GamerTag,
		homeState:   rec.HomeState,
		tournaments: make(map[string]struct{}),
		stateCounts: make(map[string]int),
	}
}

// Fold applies one match record to the accumulator. The event weight is
// computed once per record and shared by all of its sets.
func (a *Accumulator) Fold(rec model.MatchRecord, target string, now int64) {
	a.eventsPlayed++
	if rec.Tournament.Name != "" {
		a.tournaments[rec.Tournament.Name] = struct{}{}
	}

	if rec.SeedNum != nil && rec.Placement != nil {
		a.seedDeltas = append(a.seedDeltas, float64(*rec.SeedNum)-float64(*rec.Placement))
	}

	weight := eventWeight(rec.Event.NumEntrants, rec.Event.StartAt, now)
	if rec.Event.StartAt > a.latestEventStart {
		a.latestEventStart = rec.Event.StartAt
	}
	if rec.Event.NumEntrants > 0 {
		a.eventSizes = append(a.eventSizes, rec.Event.NumEntrants)
	}
	if rec.Tournament.AddrState != "" {
		key := normalizeState(rec.Tournament.AddrState)
		if key == "" {
			key = unknownState
		}
		a.stateCounts[key]++
	}

	for _, set := range rec.Sets {
		if set.Won == nil {
			continue
		}
		a.setsPlayed++
		if *set.Won {
			a.wins++
			a.weightedWins += weight
		}
		a.weightSum += weight

		if s := opponentStrength(set); s != nil {
			a.oppStrengths = append(a.oppStrengths, *s)
		}

		// Lower seed number means higher seeding; facing a lower number than
		// your own is an up-seed set, and winning it is an upset.
		if set.OpponentSeed != nil && rec.SeedNum != nil && *set.OpponentSeed < *rec.SeedNum {
			a.setsVsHigherSeed++
			if *set.Won {
				a.winsVsHigherSeed++
			}
		}

		if usesCharacter(set, target) {
			a.charSets++
			if *set.Won {
				a.charWins++
				a.charWeightedWins += weight
			}
			a.charWeightSum += weight
		}
	}
}

// Merge folds another accumulator for the same player into this one. All
// quantities combine commutatively; latestEventStart takes the max and the
// explicit home state keeps the receiver's value unless it is empty.
func (a *Accumulator) Merge(b *Accumulator) {
	if a.homeState == "" {
		a.homeState = b.homeState
	}
	a.eventsPlayed += b.eventsPlayed
	for name := range b.tournaments {
		a.tournaments[name] = struct{}{}
	}
	a.setsPlayed += b.setsPlayed
	a.wins += b.wins
	a.weightedWins += b.weightedWins
	a.weightSum += b.weightSum
	a.seedDeltas = append(a.seedDeltas, b.seedDeltas...)
	a.oppStrengths = append(a.oppStrengths, b.oppStrengths...)
	a.eventSizes = append(a.eventSizes, b.eventSizes...)
	a.setsVsHigherSeed += b.setsVsHigherSeed
	a.winsVsHigherSeed += b.winsVsHigherSeed
	a.charSets += b.charSets
	a.charWins += b.charWins
	a.charWeightedWins += b.charWeightedWins
	a.charWeightSum += b.charWeightSum
	if b.latestEventStart > a.latestEventStart {
		a.latestEventStart = b.latestEventStart
	}
	for s, n := range b.stateCounts {
		a.stateCounts[s] += n
	}
}

func usesCharacter(set model.SetOutcome, target string) bool {
	for _, c := range set.Characters {
		if strings.EqualFold(c, target) {
			return true
		}
	}
	return false
}

// Aggregator accumulates match records across players and finalizes them
// into the output table. It is a single-writer structure: feed it from one
// goroutine (or merge per-partition Aggregators) and Finalize once.
type Aggregator struct {
	opts    Options
	now     int64
	players map[int]*Accumulator
}

// New returns an empty Aggregator for the given options.
func New(opts Options) *Aggregator {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Aggregator{
		opts:    opts,
		now:     now.Unix(),
		players: make(map[int]*Accumulator),
	}
}

// Fold applies one match record, creating the player's accumulator on first
// sight.
func (ag *Aggregator) Fold(rec model.MatchRecord) {
	acc := ag.players[rec.PlayerID]
	if acc == nil {
		acc = newAccumulator(rec)
		ag.players[rec.PlayerID] = acc
	}
	acc.Fold(rec, ag.opts.TargetCharacter, ag.now)
}

// Merge combines another Aggregator built with the same options, for use
// after partitioned folds.
func (ag *Aggregator) Merge(other *Aggregator) {
	for id, acc := range other.players {
		if mine := ag.players[id]; mine != nil {
			mine.Merge(acc)
		} else {
			ag.players[id] = acc
		}
	}
}

// Finalize turns the accumulated state into the output table: one row per
// player with at least one counted set, sorted by weighted win rate
// descending with absent values last. Finalize does not mutate the
// accumulators; calling it twice yields identical tables.
func (ag *Aggregator) Finalize() []model.PlayerMetrics {
	ids := make([]int, 0, len(ag.players))
	for id := range ag.players {
		ids = append(ids, id)
	}
	// Ascending id order before the stable sort keeps row order
	// deterministic across runs for equal or absent weighted win rates.
	sort.Ints(ids)

	rows := make([]model.PlayerMetrics, 0, len(ids))
	for _, id := range ids {
		if row, ok := finalizeAccumulator(ag.players[id], ag.opts); ok {
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		wi, wj := rows[i].WeightedWinRate, rows[j].WeightedWinRate
		switch {
		case wi == nil:
			return false
		case wj == nil:
			return true
		default:
			return *wi > *wj
		}
	})
	return rows
}

// Aggregate is the one-shot entry point: fold every record, then finalize.
func Aggregate(records []model.MatchRecord, opts Options) []model.PlayerMetrics {
	ag := New(opts)
	for _, rec := range records {
		ag.Fold(rec)
	}
	return ag.Finalize()
}

// finalizeAccumulator derives the metrics row for one player. Returns false
// when the player accumulated no counted sets and should emit no row.
func finalizeAccumulator(a *Accumulator, opts Options) (model.PlayerMetrics, bool) {
	if a.setsPlayed == 0 {
		return model.PlayerMetrics{}, false
	}

	row := model.PlayerMetrics{
		PlayerID:          a.playerID,
		GamerTag:          a.gamerTag,
		EventsPlayed:      a.eventsPlayed,
		SetsPlayed:        a.setsPlayed,
		TournamentsPlayed: len(a.tournaments),
		LatestEventStart:  a.latestEventStart,
		WinRate:           float64(a.wins) / float64(a.setsPlayed),
		ActivityScore:     float64(a.eventsPlayed) + 0.1*float64(a.setsPlayed),
	}

	if a.weightSum > 0 {
		row.WeightedWinRate = floatPtr(a.weightedWins / a.weightSum)
	}
	if len(a.seedDeltas) > 0 {
		row.AvgSeedDelta = floatPtr(mean(a.seedDeltas))
	}
	if len(a.oppStrengths) > 0 {
		row.OpponentStrength = floatPtr(mean(a.oppStrengths))
	}
	if len(a.eventSizes) > 0 {
		sum, max := 0, a.eventSizes[0]
		for _, n := range a.eventSizes {
			sum += n
			if n > max {
				max = n
			}
		}
		row.AvgEventEntrants = floatPtr(float64(sum) / float64(len(a.eventSizes)))
		m := max
		row.MaxEventEntrants = &m
	}
	if a.setsVsHigherSeed > 0 {
		row.UpsetRate = floatPtr(float64(a.winsVsHigherSeed) / float64(a.setsVsHigherSeed))
	}

	inferred, confidence, total := inferState(a.stateCounts)
	explicit := normalizeState(a.homeState)
	row.State = explicit
	row.EventsWithKnownState = total
	row.InferredState = inferred
	if inferred != "" {
		row.InferredStateConfidence = floatPtr(confidence)
	}
	switch {
	case explicit != "":
		row.HomeState = explicit
		row.HomeStateConfidence = floatPtr(1.0)
	case inferred != "":
		row.HomeState = inferred
		row.HomeStateInferred = true
		row.HomeStateConfidence = floatPtr(confidence)
	}

	row.CharacterSets = a.charSets
	if a.charSets > 0 {
		row.CharacterWinRate = floatPtr(float64(a.charWins) / float64(a.charSets))
	}
	if a.charWeightSum > 0 {
		row.CharacterWeightedWinRate = floatPtr(a.charWeightedWins / a.charWeightSum)
	}
	row.CharacterUsageRate = float64(a.charSets) / float64(a.setsPlayed)

	// No character data at all: optionally assume the target is the
	// player's main and mirror the overall rates onto the character split.
	if opts.AssumeTargetMain && a.charSets == 0 && a.setsPlayed > 0 {
		row.CharacterSets = a.setsPlayed
		row.CharacterWinRate = floatPtr(row.WinRate)
		row.CharacterWeightedWinRate = copyFloatPtr(row.WeightedWinRate)
		row.CharacterUsageRate = 1.0
	}

	return row, true
}

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func floatPtr(v float64) *float64 { return &v }

func copyFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
