// Package pipeline drives the fetch-cache-join flow that turns the
// start.gg API plus the local cache into per-player match records.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/model"
	"github.com/smashcc/startgg-metrics/internal/results"
	"github.com/smashcc/startgg-metrics/internal/startgg"
	"github.com/smashcc/startgg-metrics/internal/storage"
)

const (
	// Discovered tournament lists are reused for a week before the API
	// is asked again.
	discoveryTTL = 7 * 24 * time.Hour

	// Concurrent event bundle downloads. start.gg rate limits per
	// token, so this stays modest.
	fetchConcurrency = 4
)

// API is the slice of the start.gg client the pipeline needs.
type API interface {
	RecentTournaments(ctx context.Context, filt startgg.TournamentFilter) ([]startgg.Tournament, error)
	TournamentEvents(ctx context.Context, tournamentID int) (startgg.Tournament, []startgg.Event, error)
	CollectEventBundle(ctx context.Context, tournament startgg.Tournament, event startgg.Event) (*startgg.EventBundle, error)
}

type Pipeline struct {
	store *storage.DB
	api   API
	log   zerolog.Logger
	now   func() time.Time
}

func New(store *storage.DB, api API, log zerolog.Logger) *Pipeline {
	return &Pipeline{store: store, api: api, log: log, now: time.Now}
}

// Stats reports what a Run touched.
type Stats struct {
	Tournaments    int
	SinglesEvents  int
	CachedBundles  int
	FetchedBundles int
}

// SyncTournaments returns the tournaments matching filt, hitting the API
// only when the cached discovery is stale or force is set.
func (p *Pipeline) SyncTournaments(ctx context.Context, filt startgg.TournamentFilter, force bool) ([]startgg.Tournament, error) {
	state, videogameID := filt.StateOrDefault(), filt.VideogameOrDefault()

	stale, err := p.store.DiscoveryStale(state, videogameID, discoveryTTL)
	if err != nil {
		return nil, fmt.Errorf("check discovery: %w", err)
	}
	if !stale && !force {
		p.log.Debug().Str("state", state).Int("videogame", videogameID).
			Msg("tournament discovery is fresh, using cache")
		return p.store.LoadTournaments(state, videogameID, filt.Cutoff(p.now()))
	}

	p.log.Info().Str("state", state).Int("videogame", videogameID).
		Msg("discovering tournaments")
	tournaments, err := p.api.RecentTournaments(ctx, filt)
	if err != nil {
		return nil, fmt.Errorf("discover tournaments: %w", err)
	}
	if err := p.store.UpsertTournaments(tournaments, videogameID); err != nil {
		return nil, fmt.Errorf("cache tournaments: %w", err)
	}
	if err := p.store.RecordDiscovery(state, videogameID); err != nil {
		return nil, fmt.Errorf("record discovery: %w", err)
	}
	return tournaments, nil
}

// eventsFor returns the tournament's events from the cache, fetching and
// caching them on a miss.
func (p *Pipeline) eventsFor(ctx context.Context, t startgg.Tournament, force bool) ([]startgg.Event, error) {
	if !force {
		has, err := p.store.HasEvents(t.ID)
		if err != nil {
			return nil, err
		}
		if has {
			return p.store.LoadEvents(t.ID)
		}
	}
	_, events, err := p.api.TournamentEvents(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("events for %q: %w", t.Name, err)
	}
	if err := p.store.SaveEvents(t.ID, events); err != nil {
		return nil, fmt.Errorf("cache events for %q: %w", t.Name, err)
	}
	return events, nil
}

type bundleJob struct {
	tournament startgg.Tournament
	event      startgg.Event
}

// Run executes the full flow: discover tournaments, collect singles
// events for the target videogame, download or reuse each event bundle,
// and join everything into per-player match records.
func (p *Pipeline) Run(ctx context.Context, filt startgg.TournamentFilter, force bool) ([]model.MatchRecord, Stats, error) {
	var stats Stats

	tournaments, err := p.SyncTournaments(ctx, filt, force)
	if err != nil {
		return nil, stats, err
	}
	stats.Tournaments = len(tournaments)

	videogameID := filt.VideogameOrDefault()
	var jobs []bundleJob
	for _, t := range tournaments {
		events, err := p.eventsFor(ctx, t, force)
		if err != nil {
			return nil, stats, err
		}
		for _, ev := range events {
			if ev.Videogame.ID != videogameID || !results.IsSinglesEvent(ev) {
				continue
			}
			jobs = append(jobs, bundleJob{tournament: t, event: ev})
		}
	}
	stats.SinglesEvents = len(jobs)
	p.log.Info().Int("tournaments", stats.Tournaments).
		Int("events", stats.SinglesEvents).Msg("collecting event bundles")

	bundles, cached, err := p.collectBundles(ctx, jobs, force)
	if err != nil {
		return nil, stats, err
	}
	stats.CachedBundles = cached
	stats.FetchedBundles = len(jobs) - cached

	var records []model.MatchRecord
	for _, b := range bundles {
		records = append(records, results.BuildMatchRecords(b)...)
	}
	return records, stats, nil
}

// Metrics runs the full flow and aggregates the resulting records into
// the sorted per-player metrics table.
func (p *Pipeline) Metrics(ctx context.Context, filt startgg.TournamentFilter, opts aggregator.Options, force bool) ([]model.PlayerMetrics, Stats, error) {
	records, stats, err := p.Run(ctx, filt, force)
	if err != nil {
		return nil, stats, err
	}
	return aggregator.Aggregate(records, opts), stats, nil
}

// collectBundles resolves every job to an event bundle, downloading
// misses concurrently. The returned slice preserves job order.
func (p *Pipeline) collectBundles(ctx context.Context, jobs []bundleJob, force bool) ([]*startgg.EventBundle, int, error) {
	bundles := make([]*startgg.EventBundle, len(jobs))
	fetched := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, job := range jobs {
		g.Go(func() error {
			if !force {
				cached, err := p.store.LoadEventBundle(job.event.ID)
				if err != nil {
					return err
				}
				if cached != nil {
					bundles[i] = cached
					return nil
				}
			}
			p.log.Debug().Int("event", job.event.ID).
				Str("tournament", job.tournament.Name).Msg("downloading event bundle")
			bundle, err := p.api.CollectEventBundle(gctx, job.tournament, job.event)
			if err != nil {
				return fmt.Errorf("bundle for event %d: %w", job.event.ID, err)
			}
			if err := p.store.SaveEventBundle(bundle); err != nil {
				return fmt.Errorf("cache bundle for event %d: %w", job.event.ID, err)
			}
			bundles[i] = bundle
			fetched[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	cachedCount := 0
	for _, f := range fetched {
		if !f {
			cachedCount++
		}
	}
	return bundles, cachedCount, nil
}
