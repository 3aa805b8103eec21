package doko_test

import (
	"reflect"
	"testing"

	"github.com/xtding233/doko-backend/internal/doko"
)

func TestNewDebt(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "B"},
		{4, "BOCK"},
		{7, "BOCKSDA"},
		{9, "BOCKSDA"},
	}
	for _, tt := range tests {
		if got := doko.NewDebt(tt.n).String(); got != tt.want {
			t.Errorf("NewDebt(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestQueueDrainsWithoutTriggers(t *testing.T) {
	for k := 0; k <= 5; k++ {
		q := doko.Queue{}.Push(k, 4)
		if q.Pending() != k {
			t.Fatalf("k=%d: pending = %d", k, q.Pending())
		}
		for i := 0; i < 4; i++ {
			q = q.Advance(0, 4)
		}
		for i := 0; i < 3; i++ {
			if q.Pending() != 0 {
				t.Fatalf("k=%d: pending = %d after drain", k, q.Pending())
			}
			q = q.Advance(0, 4)
		}
	}
}

func TestQueueBothTriggersAddTwo(t *testing.T) {
	q := doko.Queue{}.Push(1, 4).Consume().Consume().Consume().Push(1, 4)
	consumed := q.Consume().Pending()
	if got := q.Advance(2, 4).Pending(); got != consumed+2 {
		t.Fatalf("pending = %d, want %d", got, consumed+2)
	}
}

func TestQueueNoParticipantsNoDebt(t *testing.T) {
	if got := (doko.Queue{}).Advance(2, 0).Pending(); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
}

func TestQueueMethodsDoNotMutate(t *testing.T) {
	q := doko.Queue{}.Push(2, 4)
	before := q.Clone()
	_ = q.Advance(1, 4)
	_ = q.Label()
	if !reflect.DeepEqual(q, before) {
		t.Fatalf("queue mutated: %v -> %v", before, q)
	}
}

func TestQueueLabel(t *testing.T) {
	q := doko.Queue{
		{doko.TokenK},
		{doko.TokenB, doko.TokenO, doko.TokenC, doko.TokenK},
		{doko.TokenC, doko.TokenK},
	}
	if got := q.Label(); got != "BCK" {
		t.Fatalf("label = %q, want BCK", got)
	}
	if got := (doko.Queue{}).Label(); got != "" {
		t.Fatalf("empty label = %q", got)
	}
	if q.Multiplier() != 8 {
		t.Fatalf("multiplier = %d, want 8", q.Multiplier())
	}
}

func TestReplay(t *testing.T) {
	rs := doko.Canonical()
	history := [][]doko.Option{
		{doko.OptionSolo},
		{doko.OptionWin},
		{doko.OptionWin, doko.OptionRe, doko.OptionKontra},
		{doko.OptionLoss, doko.OptionRe},
		{doko.OptionSolo, doko.OptionSoloLost},
	}

	incremental := doko.Queue{}
	for _, opts := range history {
		incremental = incremental.Advance(rs.TriggerCount(doko.NewOptionSet(opts...)), 4)
	}

	once := doko.Replay(rs, history, 4)
	twice := doko.Replay(rs, history, 4)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("replay not idempotent: %v vs %v", once, twice)
	}
	if !reflect.DeepEqual(once, incremental) {
		t.Fatalf("replay = %v, incremental = %v", once, incremental)
	}
	// round 1's solo debt is spent; re/kontra from round 3 and the last solo remain
	if once.Pending() != 2 || once.Label() != "BC" {
		t.Fatalf("replay = %v label %q, want 2 debts labelled BC", once, once.Label())
	}
}

func TestReplayEmptyHistory(t *testing.T) {
	if got := doko.Replay(doko.Sheep(), nil, 4); got.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", got.Pending())
	}
}
