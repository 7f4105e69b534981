// Package results joins an event's seeds, standings, and sets into
// per-player match records. Doubles and team entrants are ignored: a record
// is built only for entrants backed by exactly one player.
package results

import (
	"sort"
	"strconv"
	"strings"

	"github.com/smashcc/startgg-metrics/internal/model"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

// IsSinglesEvent reports whether an event is a singles bracket based on its
// roster-size metadata. Missing fields are treated permissively; only an
// explicit team size disqualifies.
func IsSinglesEvent(ev startgg.Event) bool {
	if ev.EntrantSizeMin != nil && *ev.EntrantSizeMin != 1 {
		return false
	}
	if ev.EntrantSizeMax != nil && *ev.EntrantSizeMax != 1 {
		return false
	}
	if ev.TeamRosterSize != nil && *ev.TeamRosterSize != 0 && *ev.TeamRosterSize != 1 {
		return false
	}
	return true
}

// playerInfo pairs the player identity with the participant registration it
// was discovered through.
type playerInfo struct {
	player      startgg.Player
	participant startgg.Participant
}

// BuildMatchRecords joins one event bundle into per-player match records.
// Entrants with no seed and no reported sets are dropped.
func BuildMatchRecords(b *startgg.EventBundle) []model.MatchRecord {
	seedsByEntrant := make(map[int]*int)
	placementsByEntrant := make(map[int]*int)
	infoByEntrant := make(map[int]playerInfo)

	registerEntrant := func(entrant *startgg.Entrant) {
		if entrant == nil {
			return
		}
		if _, seen := infoByEntrant[entrant.ID]; seen {
			return
		}
		if len(entrant.Participants) != 1 {
			return
		}
		participant := entrant.Participants[0]
		if participant.Player == nil || participant.Player.ID == 0 {
			return
		}
		infoByEntrant[entrant.ID] = playerInfo{
			player:      *participant.Player,
			participant: participant,
		}
	}

	for _, seed := range b.Seeds {
		if seed.Entrant == nil {
			continue
		}
		seedsByEntrant[seed.Entrant.ID] = seed.SeedNum
		registerEntrant(seed.Entrant)
	}
	for _, standing := range b.Standings {
		if standing.Entrant == nil {
			continue
		}
		placementsByEntrant[standing.Entrant.ID] = standing.Placement
		registerEntrant(standing.Entrant)
	}

	setsByPlayer := make(map[int][]model.SetOutcome)

	for _, set := range b.Sets {
		if len(set.Slots) < 2 {
			continue
		}
		for _, slot := range set.Slots {
			registerEntrant(slot.Entrant)
		}
		for i, slot := range set.Slots {
			if slot.Entrant == nil || len(slot.Entrant.Participants) != 1 {
				continue
			}
			info, ok := infoByEntrant[slot.Entrant.ID]
			if !ok {
				continue
			}
			opponent := opponentSlot(set.Slots, i)
			if opponent == nil {
				continue
			}
			outcome := buildSetOutcome(set, slot.Entrant.ID, opponent,
				seedsByEntrant[opponent.ID], placementsByEntrant[opponent.ID])
			setsByPlayer[info.player.ID] = append(setsByPlayer[info.player.ID], outcome)
		}
	}

	tournamentRef := model.TournamentRef{
		ID:        b.Tournament.ID,
		Name:      b.Tournament.Name,
		Slug:      b.Tournament.Slug,
		City:      b.Tournament.City,
		AddrState: b.Tournament.AddrState,
		StartAt:   b.Tournament.StartAt,
	}
	eventRef := model.EventRef{
		ID:          b.Event.ID,
		Name:        b.Event.Name,
		Slug:        b.Event.Slug,
		StartAt:     b.Event.StartAt,
		NumEntrants: b.Event.NumEntrants,
		VideogameID: b.Event.Videogame.ID,
	}

	// Map iteration order is random; emit records in ascending entrant id
	// order so reruns produce identical output.
	entrantIDs := make([]int, 0, len(infoByEntrant))
	for id := range infoByEntrant {
		entrantIDs = append(entrantIDs, id)
	}
	sort.Ints(entrantIDs)

	var records []model.MatchRecord
	for _, entrantID := range entrantIDs {
		info := infoByEntrant[entrantID]
		playerSets := setsByPlayer[info.player.ID]
		if _, seeded := seedsByEntrant[entrantID]; len(playerSets) == 0 && !seeded {
			continue
		}
		tag := info.player.GamerTag
		if tag == "" {
			tag = info.participant.GamerTag
		}
		if tag == "" {
			tag = "Unknown"
		}
		records = append(records, model.MatchRecord{
			PlayerID:   info.player.ID,
			GamerTag:   tag,
			EntrantID:  strconv.Itoa(entrantID),
			SeedNum:    seedsByEntrant[entrantID],
			Placement:  placementsByEntrant[entrantID],
			HomeState:  profileState(info),
			Event:      eventRef,
			Tournament: tournamentRef,
			Sets:       playerSets,
		})
	}
	return records
}

// opponentSlot picks the first other slot that still has an entrant with
// participants attached.
func opponentSlot(slots []startgg.SetSlot, self int) *startgg.Entrant {
	for i, slot := range slots {
		if i == self || slot.Entrant == nil {
			continue
		}
		if len(slot.Entrant.Participants) == 0 {
			continue
		}
		return slot.Entrant
	}
	return nil
}

func buildSetOutcome(set startgg.SetNode, entrantID int, opponent *startgg.Entrant, oppSeed, oppPlacement *int) model.SetOutcome {
	outcome := model.SetOutcome{
		SetID:             set.ID.String(),
		OpponentEntrantID: strconv.Itoa(opponent.ID),
		OpponentSeed:      oppSeed,
		OpponentPlacement: oppPlacement,
		RoundText:         roundText(set),
		CompletedAt:       set.CompletedAt,
		Characters:        charactersForEntrant(set, entrantID),
	}
	if set.WinnerID != nil {
		won := *set.WinnerID == entrantID
		outcome.Won = &won
	}
	for _, p := range opponent.Participants {
		if p.Player != nil && p.Player.ID != 0 {
			outcome.OpponentPlayerIDs = append(outcome.OpponentPlayerIDs, p.Player.ID)
			tag := p.Player.GamerTag
			if tag == "" {
				tag = p.GamerTag
			}
			if tag != "" {
				outcome.OpponentTags = append(outcome.OpponentTags, tag)
			}
		}
	}
	return outcome
}

func roundText(set startgg.SetNode) string {
	if set.FullRoundText != "" {
		return set.FullRoundText
	}
	if set.Round != 0 {
		return strconv.Itoa(set.Round)
	}
	return ""
}

// charactersForEntrant collects the character names the entrant selected
// across the set's games. Selections with a non-CHARACTER type are skipped;
// an empty type is accepted because older payloads omit it.
func charactersForEntrant(set startgg.SetNode, entrantID int) []string {
	var characters []string
	for _, game := range set.Games {
		for _, sel := range game.Selections {
			selType := strings.ToUpper(sel.SelectionType)
			if selType != "" && selType != "CHARACTER" {
				continue
			}
			if sel.Entrant == nil || sel.Entrant.ID != entrantID {
				continue
			}
			if sel.Character != nil && sel.Character.Name != "" {
				characters = append(characters, sel.Character.Name)
			}
		}
	}
	return characters
}

// profileState extracts the state from the player's profile location,
// falling back to the participant-level location.
func profileState(info playerInfo) string {
	if info.player.User != nil && info.player.User.Location != nil {
		if s := info.player.User.Location.State; s != "" {
			return s
		}
	}
	if info.participant.User != nil && info.participant.User.Location != nil {
		return info.participant.User.Location.State
	}
	return ""
}
