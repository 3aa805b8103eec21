package doko

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Outcome classifies how a round's value is shared out.
type Outcome int

const (
	OutcomeTeam Outcome = iota
	OutcomeSoloWon
	OutcomeSoloLost
)

var outcomeNames = map[Outcome]string{
	OutcomeTeam:     "team",
	OutcomeSoloWon:  "solo_won",
	OutcomeSoloLost: "solo_lost",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for k, n := range outcomeNames {
		if n == string(b) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}

// Classify picks the outcome; a solo counts as won only with exactly one
// winner and as lost only with exactly one loser.
func Classify(solo bool, winners, losers int) Outcome {
	switch {
	case solo && winners == 1 && losers > 0:
		return OutcomeSoloWon
	case solo && losers == 1 && winners > 0:
		return OutcomeSoloLost
	}
	return OutcomeTeam
}

// Deltas maps participant id to signed score for one round.
type Deltas map[string]decimal.Decimal

var three = decimal.NewFromInt(3)

// Distribute turns a round value into per-participant deltas. Every id in
// participants gets an entry, rounded to one decimal place. Callers must pass
// disjoint winners and losers.
func Distribute(value decimal.Decimal, participants, winners, losers []string, solo bool) Deltas {
	out := make(Deltas, len(participants))
	for _, id := range participants {
		out[id] = decimal.Zero
	}

	win, lose := value, value.Neg()
	switch Classify(solo, len(winners), len(losers)) {
	case OutcomeSoloWon:
		win = value.Mul(three)
	case OutcomeSoloLost:
		lose = value.Mul(three).Neg()
	}
	for _, id := range winners {
		out[id] = win.Round(1)
	}
	for _, id := range losers {
		out[id] = lose.Round(1)
	}
	return out
}
