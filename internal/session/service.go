package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xtding233/doko-backend/internal/doko"
)

// Settings opens a new game.
type Settings struct {
	Ruleset   string   `json:"ruleset"`
	ValuePair string   `json:"value_pair"`
	SoloValue string   `json:"solo_value"`
	Players   []string `json:"players"`
}

// View is a game as shown to the table: history, totals and the Bock state
// the next round will be played under.
type View struct {
	Game
	Totals     map[string]decimal.Decimal `json:"totals"`
	Pending    int                        `json:"pending"`
	Bock       string                     `json:"bock,omitempty"`
	Multiplier int64                      `json:"multiplier"`
	ReadOnly   bool                       `json:"read_only"`
}

type active struct {
	game  Game
	queue doko.Queue
}

// Service owns every running game. All methods are safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	games   map[string]*active
	rules   RulesetSource
	archive Archive
	format  doko.Formatter
	now     func() time.Time
}

// NewService wires the service to its ruleset source and archive.
func NewService(rules RulesetSource, archive Archive, format doko.Formatter) *Service {
	return &Service{
		games:   make(map[string]*active),
		rules:   rules,
		archive: archive,
		format:  format,
		now:     time.Now,
	}
}

// NewGame starts an empty game. Players may be given now or later.
func (s *Service) NewGame(st Settings) (View, error) {
	if _, err := s.rules.Ruleset(st.Ruleset); err != nil {
		return View{}, err
	}
	a := &active{game: Game{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Ruleset:   st.Ruleset,
		ValuePair: st.ValuePair,
		SoloValue: st.SoloValue,
	}}
	if len(st.Players) > 0 {
		ps, err := newParticipants(st.Players)
		if err != nil {
			return View{}, err
		}
		a.game.Participants = ps
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[a.game.ID] = a
	return a.view(), nil
}

// Get returns the current state of a running game.
func (s *Service) Get(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	return a.view(), nil
}

// IDs lists running games, oldest first.
func (s *Service) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*active, 0, len(s.games))
	for _, a := range s.games {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y *active) int { return x.game.CreatedAt.Compare(y.game.CreatedAt) })
	ids := make([]string, len(out))
	for i, a := range out {
		ids[i] = a.game.ID
	}
	return ids
}

// SetPlayers replaces the table. Rounds and Bock debts are discarded.
func (s *Service) SetPlayers(id string, names []string) (View, error) {
	ps, err := newParticipants(names)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	a.game.Participants = ps
	a.game.Rounds = nil
	a.queue = nil
	return a.view(), nil
}

// RemovePlayer drops one participant and their deltas from every round.
// Pending debts are kept as they are.
func (s *Service) RemovePlayer(id, playerID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	i := slices.IndexFunc(a.game.Participants, func(p Participant) bool { return p.ID == playerID })
	if i < 0 {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, playerID)
	}
	a.game.Participants = slices.Delete(a.game.Participants, i, i+1)
	for j := range a.game.Rounds {
		r := &a.game.Rounds[j]
		delete(r.Deltas, playerID)
		r.Winners = slices.DeleteFunc(r.Winners, func(w string) bool { return w == playerID })
		r.Losers = slices.DeleteFunc(r.Losers, func(l string) bool { return l == playerID })
	}
	return a.view(), nil
}

// SetConfig changes the values used for rounds entered from now on.
// Empty arguments leave the current value in place.
func (s *Service) SetConfig(id, valuePair, soloValue string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	if valuePair != "" {
		a.game.ValuePair = valuePair
	}
	if soloValue != "" {
		a.game.SoloValue = soloValue
	}
	return a.view(), nil
}

// Preview scores a declaration without recording it.
func (s *Service) Preview(id string, opts []doko.Option, statuses map[string]doko.Status) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return Round{}, err
	}
	r, _, err := s.play(a, opts, statuses)
	return r, err
}

// SubmitRound scores a declaration, appends it to the history and advances
// the Bock queue.
func (s *Service) SubmitRound(id string, opts []doko.Option, statuses map[string]doko.Status) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return Round{}, err
	}
	r, next, err := s.play(a, opts, statuses)
	if err != nil {
		return Round{}, err
	}
	r.ID = uuid.NewString()
	a.game.Rounds = append(a.game.Rounds, r)
	a.queue = next
	return r.clone(), nil
}

// RemoveRound deletes one round and rebuilds the Bock queue from what is left.
// Stored values of the remaining rounds are not rescored.
func (s *Service) RemoveRound(id, roundID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	i := slices.IndexFunc(a.game.Rounds, func(r Round) bool { return r.ID == roundID })
	if i < 0 {
		return View{}, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	a.game.Rounds = slices.Delete(a.game.Rounds, i, i+1)
	if err := s.replay(a); err != nil {
		return View{}, err
	}
	return a.view(), nil
}

// Recompute rebuilds the Bock queue from the recorded history.
func (s *Service) Recompute(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	if err := s.replay(a); err != nil {
		return View{}, err
	}
	return a.view(), nil
}

// Stats summarizes a running game.
func (s *Service) Stats(id string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return Stats{}, err
	}
	return GameStats(a.game), nil
}

// ArchiveGame stores a running game and ends it.
func (s *Service) ArchiveGame(ctx context.Context, id string) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return Game{}, err
	}
	if len(a.game.Participants) == 0 || len(a.game.Rounds) == 0 {
		return Game{}, ErrNothingToArchive
	}
	g := a.game.clone()
	if err := s.archive.SaveGame(ctx, g); err != nil {
		return Game{}, fmt.Errorf("archive game %s: %w", id, err)
	}
	delete(s.games, id)
	return g, nil
}

// ListArchive returns archived games, newest first.
func (s *Service) ListArchive(ctx context.Context) ([]Game, error) {
	return s.archive.ListGames(ctx)
}

// ViewArchived shows an archived game read-only. Bock state is not shown.
func (s *Service) ViewArchived(ctx context.Context, id string) (View, error) {
	g, err := s.archive.GetGame(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Game: g, Totals: g.Totals(), Multiplier: 1, ReadOnly: true}, nil
}

// ContinueArchived moves an archived game back into play, rebuilding its
// Bock queue from history.
func (s *Service) ContinueArchived(ctx context.Context, id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; ok {
		return View{}, fmt.Errorf("%w: %s", ErrGameRunning, id)
	}
	g, err := s.archive.GetGame(ctx, id)
	if err != nil {
		return View{}, err
	}
	a := &active{game: g}
	if err := s.replay(a); err != nil {
		return View{}, err
	}
	if err := s.archive.DeleteGame(ctx, id); err != nil {
		return View{}, fmt.Errorf("continue game %s: %w", id, err)
	}
	s.games[id] = a
	return a.view(), nil
}

// DeleteArchived removes an archived game for good.
func (s *Service) DeleteArchived(ctx context.Context, id string) error {
	return s.archive.DeleteGame(ctx, id)
}

func (s *Service) lookup(id string) (*active, error) {
	a, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return a, nil
}

// play scores a round for a without changing it.
func (s *Service) play(a *active, opts []doko.Option, statuses map[string]doko.Status) (Round, doko.Queue, error) {
	rs, err := s.rules.Ruleset(a.game.Ruleset)
	if err != nil {
		return Round{}, nil, err
	}
	for pid := range statuses {
		if !a.game.hasParticipant(pid) {
			return Round{}, nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, pid)
		}
	}
	d, err := doko.NewDeclaration(rs, opts, statuses)
	if err != nil {
		return Round{}, nil, err
	}
	v := doko.ParseValues(a.game.ValuePair, a.game.SoloValue)
	res, next := doko.Play(rs, v, a.queue, a.game.ParticipantIDs(), d)
	r := Round{
		Result:   res,
		Summary:  s.format.Summary(res, a.game.Names()),
		PlayedAt: s.now().UTC(),
	}
	return r, next, nil
}

func (s *Service) replay(a *active) error {
	rs, err := s.rules.Ruleset(a.game.Ruleset)
	if err != nil {
		return err
	}
	a.queue = doko.Replay(rs, a.game.History(), len(a.game.Participants))
	return nil
}

func (a *active) view() View {
	return View{
		Game:       a.game.clone(),
		Totals:     a.game.Totals(),
		Pending:    a.queue.Pending(),
		Bock:       a.queue.Label(),
		Multiplier: a.queue.Multiplier(),
	}
}

// newParticipants trims names, skips blanks and assigns ids.
func newParticipants(names []string) ([]Participant, error) {
	var ps []Participant
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		ps = append(ps, Participant{ID: uuid.NewString(), Name: n})
	}
	if len(ps) == 0 || len(ps) > doko.MaxParticipants {
		return nil, fmt.Errorf("%w: need 1 to %d names, got %d", ErrInvalidPlayers, doko.MaxParticipants, len(ps))
	}
	return ps, nil
}

// IsNotFound reports whether err means a game or round does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrRoundNotFound)
}
