package startgg

import (
	"context"
	"fmt"
	"time"
)

// TournamentFilter scopes tournament discovery. Zero fields take the
// defaults below.
type TournamentFilter struct {
	State       string
	VideogameID int
	MonthsBack  int
	PerPage     int
}

// Discovery defaults: Georgia, Super Smash Bros. Ultimate, a six-month
// rolling window.
const (
	DefaultState       = "GA"
	DefaultVideogameID = 1386
	DefaultMonthsBack  = 6
	defaultPerPage     = 50
)

func (f TournamentFilter) withDefaults() TournamentFilter {
	if f.State == "" {
		f.State = DefaultState
	}
	if f.VideogameID == 0 {
		f.VideogameID = DefaultVideogameID
	}
	if f.MonthsBack == 0 {
		f.MonthsBack = DefaultMonthsBack
	}
	if f.PerPage == 0 {
		f.PerPage = defaultPerPage
	}
	return f
}

// StateOrDefault returns the filter state with the default applied.
func (f TournamentFilter) StateOrDefault() string {
	return f.withDefaults().State
}

// VideogameOrDefault returns the filter videogame with the default applied.
func (f TournamentFilter) VideogameOrDefault() int {
	return f.withDefaults().VideogameID
}

// Cutoff returns the oldest start timestamp still inside the filter window.
func (f TournamentFilter) Cutoff(now time.Time) int64 {
	f = f.withDefaults()
	return now.AddDate(0, 0, -30*f.MonthsBack).Unix()
}

const recentTournamentsQuery = `
query RecentTournaments($state: String!, $videogameId: ID!, $perPage: Int!, $page: Int!) {
  tournaments(query: {
    page: $page,
    perPage: $perPage,
    sortBy: "startAt desc",
    filter: {
      addrState: $state,
      videogameIds: [$videogameId],
      past: true
    }
  }) {
    nodes {
      id
      slug
      name
      city
      addrState
      startAt
      endAt
      numAttendees
    }
  }
}`

// RecentTournaments pages through past tournaments in the requested state
// and game, newest first, stopping at the first tournament older than the
// filter window.
func (c *Client) RecentTournaments(ctx context.Context, filt TournamentFilter) ([]Tournament, error) {
	filt = filt.withDefaults()
	cutoff := filt.Cutoff(time.Now().UTC())

	var out []Tournament
	for pageNum := 1; ; pageNum++ {
		var resp struct {
			Tournaments page[Tournament] `json:"tournaments"`
		}
		err := c.Execute(ctx, recentTournamentsQuery, map[string]any{
			"state":       filt.State,
			"videogameId": filt.VideogameID,
			"perPage":     filt.PerPage,
			"page":        pageNum,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("discover tournaments page %d: %w", pageNum, err)
		}
		nodes := resp.Tournaments.Nodes
		if len(nodes) == 0 {
			return out, nil
		}
		for _, node := range nodes {
			if node.StartAt < cutoff {
				return out, nil
			}
			out = append(out, node)
		}
	}
}

const tournamentEventsQuery = `
query TournamentEvents($tournamentId: ID!) {
  tournament(id: $tournamentId) {
    id
    slug
    name
    city
    addrState
    startAt
    events {
      id
      name
      slug
      startAt
      numEntrants
      teamRosterSize
      entrantSizeMin
      entrantSizeMax
      videogame {
        id
        name
      }
    }
  }
}`

// TournamentEvents fetches a tournament's events along with its own metadata
// (the events queries do not repeat tournament fields).
func (c *Client) TournamentEvents(ctx context.Context, tournamentID int) (Tournament, []Event, error) {
	var resp struct {
		Tournament *struct {
			Tournament
			Events []Event `json:"events"`
		} `json:"tournament"`
	}
	err := c.Execute(ctx, tournamentEventsQuery, map[string]any{
		"tournamentId": tournamentID,
	}, &resp)
	if err != nil {
		return Tournament{}, nil, fmt.Errorf("tournament %d events: %w", tournamentID, err)
	}
	if resp.Tournament == nil {
		return Tournament{}, nil, nil
	}
	return resp.Tournament.Tournament, resp.Tournament.Events, nil
}

const participantFields = `
  id
  gamerTag
  prefix
  user {
    location {
      city
      state
      country
    }
  }
  player {
    id
    gamerTag
    prefix
    user {
      location {
        city
        state
        country
      }
    }
  }
`

var eventSeedsQuery = `
query EventSeeds($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    seeds(query: { page: $page, perPage: $perPage }) {
      pageInfo { totalPages total }
      nodes {
        id
        seedNum
        entrant {
          id
          name
          participants {` + participantFields + `}
        }
      }
    }
  }
}`

const eventStandingsQuery = `
query EventStandings($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    standings(query: { page: $page, perPage: $perPage }) {
      pageInfo { totalPages total }
      nodes {
        id
        placement
        entrant {
          id
          name
        }
      }
    }
  }
}`

var eventSetsQuery = `
query EventSets($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    sets(page: $page, perPage: $perPage, sortType: STANDARD) {
      pageInfo { totalPages total }
      nodes {
        id
        state
        round
        fullRoundText
        completedAt
        winnerId
        slots {
          id
          entrant {
            id
            name
            participants {` + participantFields + `}
          }
        }
        games {
          id
          orderNum
          winnerId
          entrant1Score
          entrant2Score
          selections {
            id
            selectionType
            selectionValue
            entrant { id }
            character { id name }
          }
        }
      }
    }
  }
}`

// paginateEvent pages through one event subresource until totalPages is
// exhausted. extract pulls the paginated container out of the decoded event
// object.
func paginateEvent[T any](
	ctx context.Context,
	c *Client,
	query string,
	eventID, perPage int,
	extract func(event map[string]page[T]) page[T],
) ([]T, error) {
	var out []T
	totalPages := 0
	for pageNum := 1; ; pageNum++ {
		var resp struct {
			Event map[string]page[T] `json:"event"`
		}
		err := c.Execute(ctx, query, map[string]any{
			"eventId": eventID,
			"page":    pageNum,
			"perPage": perPage,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("event %d page %d: %w", eventID, pageNum, err)
		}
		if resp.Event == nil {
			return out, nil
		}
		container := extract(resp.Event)
		out = append(out, container.Nodes...)
		if totalPages == 0 {
			totalPages = container.PageInfo.TotalPages
			if totalPages == 0 {
				totalPages = 1
			}
		}
		if pageNum >= totalPages {
			return out, nil
		}
	}
}

// EventSeeds returns all seeds for an event with entrant and participant
// metadata.
func (c *Client) EventSeeds(ctx context.Context, eventID int) ([]Seed, error) {
	return paginateEvent(ctx, c, eventSeedsQuery, eventID, 100,
		func(event map[string]page[Seed]) page[Seed] { return event["seeds"] })
}

// EventStandings returns the final standings for an event.
func (c *Client) EventStandings(ctx context.Context, eventID int) ([]Standing, error) {
	return paginateEvent(ctx, c, eventStandingsQuery, eventID, 100,
		func(event map[string]page[Standing]) page[Standing] { return event["standings"] })
}

// EventSets returns all sets for an event including per-game character
// selections. Sets pages are heavy, so the page size is small.
func (c *Client) EventSets(ctx context.Context, eventID int) ([]SetNode, error) {
	return paginateEvent(ctx, c, eventSetsQuery, eventID, 25,
		func(event map[string]page[SetNode]) page[SetNode] { return event["sets"] })
}

// CollectEventBundle gathers seeds, standings, and sets for one event.
func (c *Client) CollectEventBundle(ctx context.Context, tournament Tournament, event Event) (*EventBundle, error) {
	seeds, err := c.EventSeeds(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	standings, err := c.EventStandings(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	sets, err := c.EventSets(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &EventBundle{
		Tournament: tournament,
		Event:      event,
		Seeds:      seeds,
		Standings:  standings,
		Sets:       sets,
	}, nil
}
