package model

// ---- Raw per-player, per-event records produced by the results join layer ----

// EventRef identifies the event a record belongs to. StartAt and NumEntrants
// are zero when start.gg did not report them.
type EventRef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	StartAt     int64  `json:"start_at"`
	NumEntrants int    `json:"num_entrants"`
	VideogameID int    `json:"videogame_id"`
}

// TournamentRef carries the tournament metadata attached to each event.
type TournamentRef struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	City      string `json:"city"`
	AddrState string `json:"addr_state"`
	StartAt   int64  `json:"start_at"`
}

// SetOutcome is a single set within an event from one player's perspective.
// Won is nil when the set has no recorded winner; such sets are skipped by
// the aggregator entirely.
type SetOutcome struct {
	SetID             string   `json:"set_id"`
	Won               *bool    `json:"won"`
	OpponentEntrantID string   `json:"opponent_entrant_id"`
	OpponentPlayerIDs []int    `json:"opponent_player_ids"`
	OpponentTags      []string `json:"opponent_tags"`
	OpponentSeed      *int     `json:"opponent_seed"`
	OpponentPlacement *int     `json:"opponent_placement"`
	RoundText         string   `json:"round_text"`
	CompletedAt       int64    `json:"completed_at"`
	Characters        []string `json:"characters"`
}

// MatchRecord is one player's participation in one event: seed, final
// placement, and the list of sets they played there. An event contributes
// at most one MatchRecord per player.
type MatchRecord struct {
	PlayerID  int    `json:"player_id"`
	GamerTag  string `json:"gamer_tag"`
	EntrantID string `json:"entrant_id"`
	SeedNum   *int   `json:"seed_num"`
	Placement *int   `json:"placement"`
	// HomeState is the state from the player's start.gg profile location,
	// empty when the profile does not expose one.
	HomeState  string        `json:"home_state"`
	Event      EventRef      `json:"event"`
	Tournament TournamentRef `json:"tournament"`
	Sets       []SetOutcome  `json:"sets"`
}

// ---- Aggregated output ----

// PlayerMetrics is the immutable per-player summary row produced by the
// aggregator. Pointer fields are nil when the underlying denominator or
// sample list was empty.
type PlayerMetrics struct {
	PlayerID int    `json:"player_id"`
	GamerTag string `json:"gamer_tag"`
	// State is the normalized explicit profile state, empty when unknown.
	State string `json:"state,omitempty"`

	EventsPlayed      int   `json:"events_played"`
	SetsPlayed        int   `json:"sets_played"`
	TournamentsPlayed int   `json:"tournaments_played"`
	LatestEventStart  int64 `json:"latest_event_start"`

	WinRate          float64  `json:"win_rate"`
	WeightedWinRate  *float64 `json:"weighted_win_rate"`
	AvgSeedDelta     *float64 `json:"avg_seed_delta"`
	OpponentStrength *float64 `json:"opponent_strength"`
	UpsetRate        *float64 `json:"upset_rate"`
	ActivityScore    float64  `json:"activity_score"`

	AvgEventEntrants *float64 `json:"avg_event_entrants"`
	MaxEventEntrants *int     `json:"max_event_entrants"`

	CharacterSets            int      `json:"character_sets"`
	CharacterWinRate         *float64 `json:"character_win_rate"`
	CharacterWeightedWinRate *float64 `json:"character_weighted_win_rate"`
	CharacterUsageRate       float64  `json:"character_usage_rate"`

	EventsWithKnownState    int      `json:"events_with_known_state"`
	InferredState           string   `json:"inferred_state,omitempty"`
	InferredStateConfidence *float64 `json:"inferred_state_confidence"`
	HomeState               string   `json:"home_state,omitempty"`
	HomeStateInferred       bool     `json:"home_state_inferred"`
	HomeStateConfidence     *float64 `json:"home_state_confidence"`
}

// ---- Cache summaries for list/summary commands ----

// TournamentSummary is a lightweight record for the list command.
type TournamentSummary struct {
	ID           int
	Slug         string
	Name         string
	City         string
	State        string
	StartAt      int64
	EndAt        int64
	NumAttendees int
	VideogameID  int
}

// CacheOverview holds aggregate statistics about the local cache.
type CacheOverview struct {
	Tournaments   int
	Events        int
	CachedBundles int
	EarliestStart int64
	LatestStart   int64
	States        int
}

// StateCount is one row of the per-state tournament breakdown.
type StateCount struct {
	State       string
	Tournaments int
	Attendees   int
}
