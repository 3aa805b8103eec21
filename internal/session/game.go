package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xtding233/doko-backend/internal/doko"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrInvalidPlayers     = errors.New("invalid player list")
	ErrNothingToArchive   = errors.New("a game needs players and rounds to be archived")
	ErrGameRunning        = errors.New("game is already running")
)

// Participant is one player at the table.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Round is a scored round plus what the table saw when it was entered.
type Round struct {
	doko.Result
	Summary  string    `json:"summary"`
	PlayedAt time.Time `json:"played_at"`
}

// Game is everything needed to rebuild a session: players, rounds in the
// order they were played, and the configuration snapshot.
type Game struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Ruleset      string        `json:"ruleset"`
	ValuePair    string        `json:"value_pair"`
	SoloValue    string        `json:"solo_value"`
	Participants []Participant `json:"participants"`
	Rounds       []Round       `json:"rounds"`
}

// ParticipantIDs returns ids in seating order.
func (g Game) ParticipantIDs() []string {
	ids := make([]string, len(g.Participants))
	for i, p := range g.Participants {
		ids[i] = p.ID
	}
	return ids
}

// Names maps participant id to display name.
func (g Game) Names() map[string]string {
	names := make(map[string]string, len(g.Participants))
	for _, p := range g.Participants {
		names[p.ID] = p.Name
	}
	return names
}

// History returns each round's declared options, oldest first, for replay.
func (g Game) History() [][]doko.Option {
	out := make([][]doko.Option, len(g.Rounds))
	for i, r := range g.Rounds {
		out[i] = r.Options
	}
	return out
}

// Totals sums every round's delta per current participant.
func (g Game) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(g.Participants))
	for _, p := range g.Participants {
		totals[p.ID] = decimal.Zero
	}
	for _, r := range g.Rounds {
		for id, d := range r.Deltas {
			if t, ok := totals[id]; ok {
				totals[id] = t.Add(d)
			}
		}
	}
	return totals
}

func (g Game) hasParticipant(id string) bool {
	return slices.ContainsFunc(g.Participants, func(p Participant) bool { return p.ID == id })
}

// clone deep-copies the parts callers could otherwise alias.
func (g Game) clone() Game {
	out := g
	out.Participants = slices.Clone(g.Participants)
	out.Rounds = make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		out.Rounds[i] = r.clone()
	}
	return out
}

func (r Round) clone() Round {
	c := r
	c.Deltas = maps.Clone(r.Deltas)
	c.Options = slices.Clone(r.Options)
	c.Winners = slices.Clone(r.Winners)
	c.Losers = slices.Clone(r.Losers)
	return c
}

// Archive stores finished games. Implementations must return ErrGameNotFound
// (possibly wrapped) for missing ids.
type Archive interface {
	SaveGame(ctx context.Context, g Game) error
	GetGame(ctx context.Context, id string) (Game, error)
	ListGames(ctx context.Context) ([]Game, error)
	DeleteGame(ctx context.Context, id string) error
}

// RulesetSource resolves ruleset names.
type RulesetSource interface {
	Ruleset(name string) (*doko.Ruleset, error)
}
