package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smashcc/startgg-metrics/internal/model"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

func nowUnix() int64 { return time.Now().UTC().Unix() }

// ---- Discovery metadata ----

// DiscoveryStale reports whether the tournament listing for a (state, game)
// pair is older than ttl or was never synced.
func (db *DB) DiscoveryStale(state string, videogameID int, ttl time.Duration) (bool, error) {
	var lastSynced int64
	err := db.conn.QueryRow(
		"SELECT last_synced FROM discoveries WHERE state = ? AND videogame_id = ?",
		strings.ToUpper(state), videogameID,
	).Scan(&lastSynced)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	age := time.Since(time.Unix(lastSynced, 0))
	return age >= ttl, nil
}

// RecordDiscovery stamps the most recent discovery run for the pair.
func (db *DB) RecordDiscovery(state string, videogameID int) error {
	_, err := db.conn.Exec(`
		INSERT INTO discoveries(state, videogame_id, last_synced)
		VALUES (?, ?, ?)
		ON CONFLICT(state, videogame_id) DO UPDATE SET last_synced = excluded.last_synced`,
		strings.ToUpper(state), videogameID, nowUnix(),
	)
	return err
}

// ---- Tournaments ----

// UpsertTournaments inserts or refreshes tournament rows after an API fetch.
func (db *DB) UpsertTournaments(tournaments []startgg.Tournament, videogameID int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tournaments(id, slug, name, city, state, start_at, end_at,
			num_attendees, videogame_id, last_synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			city = excluded.city,
			state = excluded.state,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			num_attendees = excluded.num_attendees,
			videogame_id = excluded.videogame_id,
			last_synced = excluded.last_synced`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := nowUnix()
	for _, t := range tournaments {
		if _, err := stmt.Exec(t.ID, t.Slug, t.Name, t.City, t.AddrState,
			t.StartAt, t.EndAt, t.NumAttendees, videogameID, now); err != nil {
			return fmt.Errorf("upsert tournament %d: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// LoadTournaments returns cached tournaments for the pair whose start time
// falls inside the window, newest first.
func (db *DB) LoadTournaments(state string, videogameID int, cutoff int64) ([]startgg.Tournament, error) {
	rows, err := db.conn.Query(`
		SELECT id, slug, name, city, state, start_at, end_at, num_attendees
		  FROM tournaments
		 WHERE state = ? AND videogame_id = ? AND start_at >= ?
		 ORDER BY start_at DESC`,
		strings.ToUpper(state), videogameID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []startgg.Tournament
	for rows.Next() {
		var t startgg.Tournament
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.City, &t.AddrState,
			&t.StartAt, &t.EndAt, &t.NumAttendees); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- Events ----

// SaveEvents persists event metadata (and the full event payload as JSON)
// for a tournament.
func (db *DB) SaveEvents(tournamentID int, events []startgg.Event) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO events(id, tournament_id, slug, name, start_at,
			num_entrants, videogame_id, payload, last_synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			start_at = excluded.start_at,
			num_entrants = excluded.num_entrants,
			videogame_id = excluded.videogame_id,
			payload = excluded.payload,
			last_synced = excluded.last_synced`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := nowUnix()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.ID, err)
		}
		if _, err := stmt.Exec(ev.ID, tournamentID, ev.Slug, ev.Name, ev.StartAt,
			ev.NumEntrants, ev.Videogame.ID, string(payload), now); err != nil {
			return fmt.Errorf("upsert event %d: %w", ev.ID, err)
		}
	}
	return tx.Commit()
}

// HasEvents reports whether any events are cached for the tournament. An
// empty cached set is indistinguishable from "never fetched", which only
// costs a refetch for event-less tournaments.
func (db *DB) HasEvents(tournamentID int) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(1) FROM events WHERE tournament_id = ?", tournamentID,
	).Scan(&count)
	return count > 0, err
}

// LoadEvents returns the cached events for a tournament, newest first.
func (db *DB) LoadEvents(tournamentID int) ([]startgg.Event, error) {
	rows, err := db.conn.Query(`
		SELECT payload FROM events
		 WHERE tournament_id = ?
		 ORDER BY start_at DESC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []startgg.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev startgg.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event payload: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ---- Event bundles ----

// SaveEventBundle persists the full seed/standing/set payload for an event,
// JSON-encoded and zstd-compressed.
func (db *DB) SaveEventBundle(bundle *startgg.EventBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle %d: %w", bundle.Event.ID, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO event_bundles(event_id, payload, last_synced)
		VALUES (?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			payload = excluded.payload,
			last_synced = excluded.last_synced`,
		bundle.Event.ID, db.compress(payload), nowUnix())
	return err
}

// LoadEventBundle returns the cached bundle for an event, or nil when the
// event has not been fetched yet.
func (db *DB) LoadEventBundle(eventID int) (*startgg.EventBundle, error) {
	var blob []byte
	err := db.conn.QueryRow(
		"SELECT payload FROM event_bundles WHERE event_id = ?", eventID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	payload, err := db.decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("decompress bundle %d: %w", eventID, err)
	}
	var bundle startgg.EventBundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle %d: %w", eventID, err)
	}
	return &bundle, nil
}

// ---- Cache summaries ----

// ListTournaments returns every cached tournament, newest first.
func (db *DB) ListTournaments() ([]model.TournamentSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, slug, name, city, state, start_at, end_at, num_attendees, videogame_id
		  FROM tournaments
		 ORDER BY start_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TournamentSummary
	for rows.Next() {
		var t model.TournamentSummary
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.City, &t.State,
			&t.StartAt, &t.EndAt, &t.NumAttendees, &t.VideogameID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Overview returns aggregate statistics about the cache.
func (db *DB) Overview() (model.CacheOverview, error) {
	var ov model.CacheOverview
	err := db.conn.QueryRow(`
		SELECT COUNT(1),
		       COALESCE(MIN(start_at), 0),
		       COALESCE(MAX(start_at), 0),
		       COUNT(DISTINCT state)
		  FROM tournaments`).
		Scan(&ov.Tournaments, &ov.EarliestStart, &ov.LatestStart, &ov.States)
	if err != nil {
		return ov, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(1) FROM events").Scan(&ov.Events); err != nil {
		return ov, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(1) FROM event_bundles").Scan(&ov.CachedBundles); err != nil {
		return ov, err
	}
	return ov, nil
}

// StateCounts returns the per-state tournament breakdown, busiest first.
func (db *DB) StateCounts() ([]model.StateCount, error) {
	rows, err := db.conn.Query(`
		SELECT COALESCE(state, ''), COUNT(1), COALESCE(SUM(num_attendees), 0)
		  FROM tournaments
		 GROUP BY state
		 ORDER BY COUNT(1) DESC, state ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StateCount
	for rows.Next() {
		var sc model.StateCount
		if err := rows.Scan(&sc.State, &sc.Tournaments, &sc.Attendees); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
