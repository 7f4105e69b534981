package startgg

import (
	"bytes"
	"encoding/json"
)

// SetID tolerates start.gg set identifiers, which arrive as JSON numbers for
// reported sets and as strings (e.g. "preview_123_4") for previews.
type SetID string

func (id *SetID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = SetID(s)
		return nil
	}
	*id = SetID(b)
	return nil
}

func (id SetID) String() string { return string(id) }

// Tournament is the tournament node shape used by discovery and events
// queries.
type Tournament struct {
	ID           int    `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	City         string `json:"city"`
	AddrState    string `json:"addrState"`
	StartAt      int64  `json:"startAt"`
	EndAt        int64  `json:"endAt"`
	NumAttendees int    `json:"numAttendees"`
}

// Videogame identifies the game an event is for.
type Videogame struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Event carries the roster-sizing metadata needed to tell singles brackets
// from teams brackets. Pointer fields are nil when start.gg omits them.
type Event struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	StartAt        int64     `json:"startAt"`
	NumEntrants    int       `json:"numEntrants"`
	TeamRosterSize *int      `json:"teamRosterSize"`
	EntrantSizeMin *int      `json:"entrantSizeMin"`
	EntrantSizeMax *int      `json:"entrantSizeMax"`
	Videogame      Videogame `json:"videogame"`
}

// Location is a user's profile location.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// User wraps the location exposed on player and participant profiles.
type User struct {
	Location *Location `json:"location"`
}

// Player is the persistent player identity behind a participant.
type Player struct {
	ID       int    `json:"id"`
	GamerTag string `json:"gamerTag"`
	Prefix   string `json:"prefix"`
	User     *User  `json:"user"`
}

// Participant is one tournament registration.
type Participant struct {
	ID       int     `json:"id"`
	GamerTag string  `json:"gamerTag"`
	Prefix   string  `json:"prefix"`
	User     *User   `json:"user"`
	Player   *Player `json:"player"`
}

// Entrant is a bracket entry: one participant for singles, several for teams.
type Entrant struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Participants []Participant `json:"participants"`
}

// Seed assigns a seed number to an entrant.
type Seed struct {
	ID      int      `json:"id"`
	SeedNum *int     `json:"seedNum"`
	Entrant *Entrant `json:"entrant"`
}

// Standing records an entrant's final placement.
type Standing struct {
	ID        int      `json:"id"`
	Placement *int     `json:"placement"`
	Entrant   *Entrant `json:"entrant"`
}

// Character is a selectable character.
type Character struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Selection is one in-game pick (character, stage strike, etc.).
type Selection struct {
	ID             int        `json:"id"`
	SelectionType  string     `json:"selectionType"`
	SelectionValue *int       `json:"selectionValue"`
	Entrant        *Entrant   `json:"entrant"`
	Character      *Character `json:"character"`
}

// Game is a single game within a set.
type Game struct {
	ID            int         `json:"id"`
	OrderNum      int         `json:"orderNum"`
	WinnerID      *int        `json:"winnerId"`
	Entrant1Score *int        `json:"entrant1Score"`
	Entrant2Score *int        `json:"entrant2Score"`
	Selections    []Selection `json:"selections"`
}

// SetSlot is one side of a set.
type SetSlot struct {
	ID      int      `json:"id"`
	Entrant *Entrant `json:"entrant"`
}

// SetNode is a reported set with its games and character selections.
type SetNode struct {
	ID            SetID     `json:"id"`
	State         int       `json:"state"`
	Round         int       `json:"round"`
	FullRoundText string    `json:"fullRoundText"`
	CompletedAt   int64     `json:"completedAt"`
	WinnerID      *int      `json:"winnerId"`
	Slots         []SetSlot `json:"slots"`
	Games         []Game    `json:"games"`
}

// EventBundle groups everything fetched for one event.
type EventBundle struct {
	Tournament Tournament `json:"tournament"`
	Event      Event      `json:"event"`
	Seeds      []Seed     `json:"seeds"`
	Standings  []Standing `json:"standings"`
	Sets       []SetNode  `json:"sets"`
}

// pageInfo is the pagination envelope common to event subresources.
type pageInfo struct {
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// page is the nodes+pageInfo container returned by paginated queries.
type page[T any] struct {
	PageInfo pageInfo `json:"pageInfo"`
	Nodes    []T      `json:"nodes"`
}
