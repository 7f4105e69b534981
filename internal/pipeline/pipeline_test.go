package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smashcc/startgg-metrics/internal/startgg"
	"github.com/smashcc/startgg-metrics/internal/storage"
)

type fakeAPI struct {
	mu          sync.Mutex
	tournaments []startgg.Tournament
	events      map[int][]startgg.Event
	bundles     map[int]*startgg.EventBundle

	discoverCalls int
	eventCalls    int
	bundleCalls   int
}

func (f *fakeAPI) RecentTournaments(_ context.Context, _ startgg.TournamentFilter) ([]startgg.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discoverCalls++
	return f.tournaments, nil
}

func (f *fakeAPI) TournamentEvents(_ context.Context, tournamentID int) (startgg.Tournament, []startgg.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventCalls++
	return startgg.Tournament{ID: tournamentID}, f.events[tournamentID], nil
}

func (f *fakeAPI) CollectEventBundle(_ context.Context, _ startgg.Tournament, event startgg.Event) (*startgg.EventBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundleCalls++
	return f.bundles[event.ID], nil
}

func intPtr(v int) *int { return &v }

func singlesEntrant(entrantID, playerID int, tag string) *startgg.Entrant {
	return &startgg.Entrant{
		ID:   entrantID,
		Name: tag,
		Participants: []startgg.Participant{{
			ID:       entrantID * 10,
			GamerTag: tag,
			Player:   &startgg.Player{ID: playerID, GamerTag: tag},
		}},
	}
}

// fixtureAPI builds a fake with one tournament carrying a singles event,
// a doubles event, and an event for another game. Only the singles event
// should reach the join.
func fixtureAPI(now time.Time) *fakeAPI {
	tournament := startgg.Tournament{
		ID: 1, Name: "Atlanta Weekly", AddrState: "GA",
		StartAt: now.Add(-48 * time.Hour).Unix(), NumAttendees: 30,
	}
	singles := startgg.Event{
		ID: 100, Name: "Ultimate Singles", StartAt: tournament.StartAt,
		NumEntrants: 16, EntrantSizeMin: intPtr(1), EntrantSizeMax: intPtr(1),
		Videogame: startgg.Videogame{ID: startgg.DefaultVideogameID, Name: "Ultimate"},
	}
	doubles := startgg.Event{
		ID: 101, Name: "Ultimate Doubles", StartAt: tournament.StartAt,
		NumEntrants: 8, EntrantSizeMin: intPtr(2), EntrantSizeMax: intPtr(2),
		Videogame: startgg.Videogame{ID: startgg.DefaultVideogameID, Name: "Ultimate"},
	}
	otherGame := startgg.Event{
		ID: 102, Name: "Melee Singles", StartAt: tournament.StartAt,
		NumEntrants: 12, EntrantSizeMin: intPtr(1), EntrantSizeMax: intPtr(1),
		Videogame: startgg.Videogame{ID: 1, Name: "Melee"},
	}

	alice := singlesEntrant(5, 50, "Alice")
	bob := singlesEntrant(6, 60, "Bob")
	bundle := &startgg.EventBundle{
		Tournament: tournament,
		Event:      singles,
		Seeds: []startgg.Seed{
			{ID: 1, SeedNum: intPtr(1), Entrant: alice},
			{ID: 2, SeedNum: intPtr(2), Entrant: bob},
		},
		Standings: []startgg.Standing{
			{ID: 1, Placement: intPtr(1), Entrant: alice},
			{ID: 2, Placement: intPtr(2), Entrant: bob},
		},
		Sets: []startgg.SetNode{{
			ID: startgg.SetID("900"), WinnerID: intPtr(5),
			FullRoundText: "Grand Final",
			Slots: []startgg.SetSlot{
				{ID: 1, Entrant: alice},
				{ID: 2, Entrant: bob},
			},
		}},
	}

	return &fakeAPI{
		tournaments: []startgg.Tournament{tournament},
		events:      map[int][]startgg.Event{1: {singles, doubles, otherGame}},
		bundles:     map[int]*startgg.EventBundle{100: bundle},
	}
}

func newTestPipeline(t *testing.T, api API) *Pipeline {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, api, zerolog.Nop())
}

func TestRunFetchesAndJoins(t *testing.T) {
	api := fixtureAPI(time.Now())
	p := newTestPipeline(t, api)

	records, stats, err := p.Run(context.Background(), startgg.TournamentFilter{}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Tournaments)
	assert.Equal(t, 1, stats.SinglesEvents, "doubles and other games excluded")
	assert.Equal(t, 1, stats.FetchedBundles)
	assert.Equal(t, 0, stats.CachedBundles)

	require.Len(t, records, 2, "one record per singles player")
	byTag := map[string]bool{}
	for _, r := range records {
		byTag[r.GamerTag] = true
		assert.Len(t, r.Sets, 1)
	}
	assert.True(t, byTag["Alice"])
	assert.True(t, byTag["Bob"])
}

func TestRunReusesCache(t *testing.T) {
	api := fixtureAPI(time.Now())
	p := newTestPipeline(t, api)

	_, _, err := p.Run(context.Background(), startgg.TournamentFilter{}, false)
	require.NoError(t, err)
	require.Equal(t, 1, api.discoverCalls)
	require.Equal(t, 1, api.eventCalls)
	require.Equal(t, 1, api.bundleCalls)

	records, stats, err := p.Run(context.Background(), startgg.TournamentFilter{}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, api.discoverCalls, "discovery still fresh")
	assert.Equal(t, 1, api.eventCalls, "events served from cache")
	assert.Equal(t, 1, api.bundleCalls, "bundle served from cache")
	assert.Equal(t, 1, stats.CachedBundles)
	assert.Equal(t, 0, stats.FetchedBundles)
	assert.Len(t, records, 2)
}

func TestRunForceBypassesCache(t *testing.T) {
	api := fixtureAPI(time.Now())
	p := newTestPipeline(t, api)

	_, _, err := p.Run(context.Background(), startgg.TournamentFilter{}, false)
	require.NoError(t, err)

	_, stats, err := p.Run(context.Background(), startgg.TournamentFilter{}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, api.discoverCalls)
	assert.Equal(t, 2, api.eventCalls)
	assert.Equal(t, 2, api.bundleCalls)
	assert.Equal(t, 1, stats.FetchedBundles)
}

func TestSyncTournamentsRecordsDiscovery(t *testing.T) {
	api := fixtureAPI(time.Now())
	p := newTestPipeline(t, api)

	got, err := p.SyncTournaments(context.Background(), startgg.TournamentFilter{}, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Atlanta Weekly", got[0].Name)

	// A second sync reads the cache and returns the same window.
	got, err = p.SyncTournaments(context.Background(), startgg.TournamentFilter{}, false)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, api.discoverCalls)
}
