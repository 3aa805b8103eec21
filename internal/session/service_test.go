package session_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xtding233/doko-backend/internal/doko"
	"github.com/xtding233/doko-backend/internal/session"
)

type builtinRules struct{}

func (builtinRules) Ruleset(name string) (*doko.Ruleset, error) {
	rs, ok := doko.Builtin(name)
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q", name)
	}
	return rs, nil
}

type memArchive struct {
	mu    sync.Mutex
	games map[string]session.Game
}

func newMemArchive() *memArchive { return &memArchive{games: map[string]session.Game{}} }

func (m *memArchive) SaveGame(_ context.Context, g session.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	return nil
}

func (m *memArchive) GetGame(_ context.Context, id string) (session.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return session.Game{}, session.ErrGameNotFound
	}
	return g, nil
}

func (m *memArchive) ListGames(context.Context) ([]session.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []session.Game
	for _, g := range m.games {
		out = append(out, g)
	}
	return out, nil
}

func (m *memArchive) DeleteGame(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return session.ErrGameNotFound
	}
	delete(m.games, id)
	return nil
}

func newGame(t *testing.T, ruleset string, players ...string) (*session.Service, *memArchive, session.View) {
	t.Helper()
	arch := newMemArchive()
	svc := session.NewService(builtinRules{}, arch, doko.NewFormatter("de"))
	v, err := svc.NewGame(session.Settings{Ruleset: ruleset, ValuePair: "10/20", SoloValue: "50", Players: players})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return svc, arch, v
}

// statuses marks the first len(won) ids as winners and the rest as losers.
func statuses(ids []string, won int) map[string]doko.Status {
	out := make(map[string]doko.Status, len(ids))
	for i, id := range ids {
		if i < won {
			out[id] = doko.StatusWon
		} else {
			out[id] = doko.StatusLost
		}
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSetPlayers(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical)

	if _, err := svc.SetPlayers(v.ID, []string{" ", ""}); !errors.Is(err, session.ErrInvalidPlayers) {
		t.Fatalf("blank names err = %v", err)
	}
	if _, err := svc.SetPlayers(v.ID, strings.Split("a b c d e f g h", " ")); !errors.Is(err, session.ErrInvalidPlayers) {
		t.Fatalf("8 names err = %v", err)
	}
	got, err := svc.SetPlayers(v.ID, []string{" Anna ", "Ben", "", "Cem", "Dora"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Participants) != 4 || got.Participants[0].Name != "Anna" {
		t.Fatalf("participants = %+v", got.Participants)
	}
	if _, err := svc.SetPlayers("missing", []string{"x"}); !errors.Is(err, session.ErrGameNotFound) {
		t.Fatalf("missing game err = %v", err)
	}
}

func TestSubmitSoloWon(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	r, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionSolo}, statuses(ids, 1))
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == "" || !r.Value.Equal(dec("0.5")) || r.Outcome != doko.OutcomeSoloWon {
		t.Fatalf("round = %+v", r.Result)
	}
	if !strings.Contains(r.Summary, "Gewinner (Anna): +1,5") {
		t.Fatalf("summary = %q", r.Summary)
	}

	got, err := svc.Get(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Pending != 1 || got.Bock != "B" || got.Multiplier != 2 {
		t.Fatalf("bock state = %d %q x%d", got.Pending, got.Bock, got.Multiplier)
	}
	if !got.Totals[ids[0]].Equal(dec("1.5")) || !got.Totals[ids[3]].Equal(dec("-0.5")) {
		t.Fatalf("totals = %v", got.Totals)
	}

	// next round runs under the debt and consumes one token
	r, err = svc.SubmitRound(v.ID, []doko.Option{doko.OptionWin}, statuses(ids, 2))
	if err != nil {
		t.Fatal(err)
	}
	if r.Multiplier != 2 || !r.Value.Equal(dec("0.2")) || r.Bock != "B" {
		t.Fatalf("bock round = %+v", r.Result)
	}
	if !strings.Contains(r.Summary, "(Bockrunde x2)") {
		t.Fatalf("summary = %q", r.Summary)
	}
	if got, _ := svc.Get(v.ID); got.Bock != "O" || got.Pending != 1 {
		t.Fatalf("label after one round = %q, want O", got.Bock)
	}
}

func TestSubmitRejects(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	tests := []struct {
		name string
		opts []doko.Option
		st   map[string]doko.Status
		want error
	}{
		{"no game type", []doko.Option{doko.OptionRe}, statuses(ids, 2), doko.ErrNoGameType},
		{"three active", []doko.Option{doko.OptionWin}, statuses(ids[:3], 2), doko.ErrParticipantCount},
		{"stranger", []doko.Option{doko.OptionWin}, map[string]doko.Status{"nobody": doko.StatusWon}, session.ErrUnknownParticipant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SubmitRound(v.ID, tt.opts, tt.st); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if got, _ := svc.Get(v.ID); len(got.Rounds) != 0 || got.Pending != 0 {
		t.Fatalf("rejected rounds changed state: %+v", got)
	}
}

func TestPreviewDoesNotRecord(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	r, err := svc.Preview(v.ID, []doko.Option{doko.OptionSolo}, statuses(ids, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Value.Equal(dec("0.5")) || r.ID != "" {
		t.Fatalf("preview = %+v", r.Result)
	}
	got, _ := svc.Get(v.ID)
	if len(got.Rounds) != 0 || got.Pending != 0 {
		t.Fatalf("preview changed state: rounds=%d pending=%d", len(got.Rounds), got.Pending)
	}
}

func TestRemoveRoundReplaysQueue(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	solo, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionSolo}, statuses(ids, 1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionWin}, statuses(ids, 2)); err != nil {
		t.Fatal(err)
	}

	got, err := svc.RemoveRound(v.ID, solo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rounds) != 1 || got.Pending != 0 || got.Bock != "" {
		t.Fatalf("after removal: rounds=%d pending=%d label=%q", len(got.Rounds), got.Pending, got.Bock)
	}
	// the surviving round keeps the value it was scored with
	if !got.Rounds[0].Value.Equal(dec("0.2")) {
		t.Fatalf("kept round value = %s", got.Rounds[0].Value)
	}
	if _, err := svc.RemoveRound(v.ID, solo.ID); !errors.Is(err, session.ErrRoundNotFound) {
		t.Fatalf("second removal err = %v", err)
	}
}

func TestRemovePlayerKeepsRounds(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetSheep, "Anna", "Ben", "Cem", "Dora", "Emil")
	ids := v.ParticipantIDs()

	st := statuses(ids[:4], 2)
	if _, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionWin}, st); err != nil {
		t.Fatal(err)
	}
	got, err := svc.RemovePlayer(v.ID, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Participants) != 4 || len(got.Rounds) != 1 {
		t.Fatalf("participants=%d rounds=%d", len(got.Participants), len(got.Rounds))
	}
	if _, ok := got.Rounds[0].Deltas[ids[0]]; ok {
		t.Fatal("removed player still has a delta")
	}
	if slices.Contains(got.Rounds[0].Winners, ids[0]) {
		t.Fatal("removed player still listed as winner")
	}
	if _, ok := got.Totals[ids[0]]; ok {
		t.Fatal("removed player still has a total")
	}
	if _, err := svc.RemovePlayer(v.ID, ids[0]); !errors.Is(err, session.ErrUnknownParticipant) {
		t.Fatalf("second removal err = %v", err)
	}
}

func TestSetConfigAppliesToLaterRounds(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	if _, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionWin}, statuses(ids, 2)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetConfig(v.ID, "20/40", ""); err != nil {
		t.Fatal(err)
	}
	r, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionWin}, statuses(ids, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Value.Equal(dec("0.2")) {
		t.Fatalf("value = %s, want 0.2", r.Value)
	}
	got, _ := svc.Get(v.ID)
	if !got.Rounds[0].Value.Equal(dec("0.1")) || got.SoloValue != "50" {
		t.Fatalf("first round = %s, solo = %s", got.Rounds[0].Value, got.SoloValue)
	}
}

func TestViewIsACopy(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()
	if _, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionWin}, statuses(ids, 2)); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.Get(v.ID)
	got.Rounds[0].Deltas[ids[0]] = dec("99")
	got.Participants[0].Name = "changed"

	again, _ := svc.Get(v.ID)
	if again.Rounds[0].Deltas[ids[0]].Equal(dec("99")) || again.Participants[0].Name != "Anna" {
		t.Fatal("mutating a view changed the game")
	}
}

func TestArchiveLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, arch, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	if _, err := svc.ArchiveGame(ctx, v.ID); !errors.Is(err, session.ErrNothingToArchive) {
		t.Fatalf("empty archive err = %v", err)
	}
	if _, err := svc.SubmitRound(v.ID, []doko.Option{doko.OptionSolo}, statuses(ids, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ArchiveGame(ctx, v.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(v.ID); !errors.Is(err, session.ErrGameNotFound) {
		t.Fatalf("archived game still running: %v", err)
	}

	ro, err := svc.ViewArchived(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !ro.ReadOnly || ro.Pending != 0 || len(ro.Rounds) != 1 {
		t.Fatalf("archived view = %+v", ro)
	}

	cont, err := svc.ContinueArchived(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cont.ReadOnly || cont.Pending != 1 || cont.Bock != "B" {
		t.Fatalf("continued view: pending=%d label=%q", cont.Pending, cont.Bock)
	}
	if len(arch.games) != 0 {
		t.Fatal("continued game left in archive")
	}
	if _, err := svc.ContinueArchived(ctx, v.ID); !errors.Is(err, session.ErrGameRunning) {
		t.Fatalf("continue twice err = %v", err)
	}

	if _, err := svc.ArchiveGame(ctx, v.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteArchived(ctx, v.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ViewArchived(ctx, v.ID); !session.IsNotFound(err) {
		t.Fatalf("deleted game err = %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, _, v := newGame(t, doko.RulesetCanonical, "Anna", "Ben", "Cem", "Dora")
	ids := v.ParticipantIDs()

	if st, _ := svc.Stats(v.ID); st.Rounds != 0 || st.Mean != 0 {
		t.Fatalf("empty stats = %+v", st)
	}
	// 0.5 solo, then 0.2 under Bock
	rounds := []struct {
		opts []doko.Option
		won  int
	}{
		{[]doko.Option{doko.OptionSolo}, 1},
		{[]doko.Option{doko.OptionWin}, 2},
	}
	for _, r := range rounds {
		if _, err := svc.SubmitRound(v.ID, r.opts, statuses(ids, r.won)); err != nil {
			t.Fatal(err)
		}
	}
	st, err := svc.Stats(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Rounds != 2 || st.BockRounds != 1 || st.SoloRounds != 1 {
		t.Fatalf("counts = %+v", st)
	}
	if st.Mean < 0.349 || st.Mean > 0.351 || st.Max != 0.5 {
		t.Fatalf("mean=%v max=%v", st.Mean, st.Max)
	}
	if st.Wins[ids[0]] != 2 || st.Wins[ids[1]] != 1 || st.Wins[ids[3]] != 0 {
		t.Fatalf("wins = %v", st.Wins)
	}
}
