package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/smashcc/startgg-metrics/internal/model"
)

func f(v float64) *float64 { return &v }

func sampleRows() []model.PlayerMetrics {
	conf := 0.75
	return []model.PlayerMetrics{
		{
			PlayerID: 50, GamerTag: "Alice", HomeState: "GA",
			EventsPlayed: 4, SetsPlayed: 12, TournamentsPlayed: 4,
			WinRate: 0.75, WeightedWinRate: f(0.71), AvgSeedDelta: f(1.5),
			OpponentStrength: f(0.213), UpsetRate: f(0.25), ActivityScore: 5.2,
			CharacterSets: 10, CharacterWinRate: f(0.8), CharacterUsageRate: 0.83,
		},
		{
			PlayerID: 60, GamerTag: "Bob",
			HomeState: "FL", HomeStateInferred: true, HomeStateConfidence: &conf,
			EventsPlayed: 1, SetsPlayed: 2, TournamentsPlayed: 1,
			WinRate: 0.0, ActivityScore: 1.2,
		},
	}
}

func TestMetricsTableRendersAbsentAsDash(t *testing.T) {
	var buf bytes.Buffer
	PrintMetricsTableTo(&buf, sampleRows(), 0)
	out := buf.String()

	for _, want := range []string{"Alice", "Bob", "75%", "+1.5", "0.213", "—"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "FL?75") {
		t.Errorf("inferred state not marked with confidence:\n%s", out)
	}
}

func TestMetricsTableLimit(t *testing.T) {
	var buf bytes.Buffer
	PrintMetricsTableTo(&buf, sampleRows(), 1)
	out := buf.String()

	if !strings.Contains(out, "Alice") {
		t.Error("first row missing")
	}
	if strings.Contains(out, "Bob") {
		t.Error("limit 1 should drop the second row")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "player_id" || records[0][1] != "gamer_tag" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][1] != "Alice" || records[1][7] != "0.7500" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	// Absent pointers become empty fields, not zeros.
	if records[2][8] != "" {
		t.Errorf("expected empty weighted_win_rate for Bob, got %q", records[2][8])
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded []model.PlayerMetrics
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(decoded))
	}
	if decoded[0].GamerTag != "Alice" || decoded[0].WeightedWinRate == nil {
		t.Errorf("round trip lost data: %+v", decoded[0])
	}
	if decoded[1].WeightedWinRate != nil {
		t.Error("expected nil weighted_win_rate for Bob after round trip")
	}
}
