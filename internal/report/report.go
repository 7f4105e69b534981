package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/smashcc/startgg-metrics/internal/model"
)

// PrintMetricsTable prints the player metrics table to stdout.
func PrintMetricsTable(rows []model.PlayerMetrics, limit int) {
	PrintMetricsTableTo(os.Stdout, rows, limit)
}

// PrintMetricsTableTo writes the metrics table to the provided writer.
// A limit of zero or less prints every row.
func PrintMetricsTableTo(w io.Writer, rows []model.PlayerMetrics, limit int) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	table.Header(
		"PLAYER", "STATE", "EVENTS", "SETS", "WIN%", "W_WIN%", "SEED_Δ",
		"OPP_STR", "UPSET%", "ACTIVITY", "CHAR_SETS", "CHAR_WIN%", "CHAR_USE%",
	)

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, r := range rows {
		table.Append(
			r.GamerTag,
			stateCell(r),
			strconv.Itoa(r.EventsPlayed),
			strconv.Itoa(r.SetsPlayed),
			fmt.Sprintf("%.0f%%", r.WinRate*100),
			pctCell(r.WeightedWinRate),
			signedCell(r.AvgSeedDelta),
			floatCell(r.OpponentStrength, "%.3f"),
			pctCell(r.UpsetRate),
			fmt.Sprintf("%.1f", r.ActivityScore),
			strconv.Itoa(r.CharacterSets),
			pctCell(r.CharacterWinRate),
			fmt.Sprintf("%.0f%%", r.CharacterUsageRate*100),
		)
	}
	table.Render()
}

// stateCell renders the home state, marking inferred ones with its
// confidence, e.g. "GA?75".
func stateCell(r model.PlayerMetrics) string {
	if r.HomeState == "" {
		return "—"
	}
	if r.HomeStateInferred && r.HomeStateConfidence != nil {
		return fmt.Sprintf("%s?%.0f", r.HomeState, *r.HomeStateConfidence*100)
	}
	return r.HomeState
}

func pctCell(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

func signedCell(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%+.1f", *v)
}

func floatCell(v *float64, format string) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf(format, *v)
}

// PrintTournamentTable prints the cached tournament list.
func PrintTournamentTable(w io.Writer, tournaments []model.TournamentSummary) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header("ID", "NAME", "CITY", "STATE", "DATE", "ATTENDEES")
	for _, t := range tournaments {
		table.Append(
			strconv.Itoa(t.ID),
			t.Name,
			t.City,
			t.State,
			dateCell(t.StartAt),
			strconv.Itoa(t.NumAttendees),
		)
	}
	table.Render()
}

// PrintOverview prints the cache summary plus the per-state breakdown.
func PrintOverview(w io.Writer, ov model.CacheOverview, states []model.StateCount) {
	fmt.Fprintf(w, "\nTournaments: %d  |  Events: %d  |  Cached bundles: %d  |  States: %d\n",
		ov.Tournaments, ov.Events, ov.CachedBundles, ov.States)
	if ov.Tournaments > 0 {
		fmt.Fprintf(w, "Date range: %s – %s\n", dateCell(ov.EarliestStart), dateCell(ov.LatestStart))
	}
	fmt.Fprintln(w)

	if len(states) == 0 {
		return
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header("STATE", "TOURNAMENTS", "ATTENDEES")
	for _, s := range states {
		state := s.State
		if state == "" {
			state = "—"
		}
		table.Append(state, strconv.Itoa(s.Tournaments), strconv.Itoa(s.Attendees))
	}
	table.Render()
}

func dateCell(unix int64) string {
	if unix == 0 {
		return "—"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

// WriteJSON writes the metrics rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []model.PlayerMetrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

var csvHeader = []string{
	"player_id", "gamer_tag", "home_state", "home_state_inferred",
	"events_played", "sets_played", "tournaments_played",
	"win_rate", "weighted_win_rate", "avg_seed_delta", "opponent_strength",
	"upset_rate", "activity_score", "avg_event_entrants", "max_event_entrants",
	"character_sets", "character_win_rate", "character_weighted_win_rate",
	"character_usage_rate", "latest_event_start",
}

// WriteCSV writes the metrics rows as CSV with a header line. Absent
// values become empty fields.
func WriteCSV(w io.Writer, rows []model.PlayerMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.PlayerID),
			r.GamerTag,
			r.HomeState,
			strconv.FormatBool(r.HomeStateInferred),
			strconv.Itoa(r.EventsPlayed),
			strconv.Itoa(r.SetsPlayed),
			strconv.Itoa(r.TournamentsPlayed),
			formatFloat(r.WinRate),
			formatFloatPtr(r.WeightedWinRate),
			formatFloatPtr(r.AvgSeedDelta),
			formatFloatPtr(r.OpponentStrength),
			formatFloatPtr(r.UpsetRate),
			formatFloat(r.ActivityScore),
			formatFloatPtr(r.AvgEventEntrants),
			formatIntPtr(r.MaxEventEntrants),
			strconv.Itoa(r.CharacterSets),
			formatFloatPtr(r.CharacterWinRate),
			formatFloatPtr(r.CharacterWeightedWinRate),
			formatFloat(r.CharacterUsageRate),
			strconv.FormatInt(r.LatestEventStart, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
