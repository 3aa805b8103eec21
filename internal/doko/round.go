package doko

import "github.com/shopspring/decimal"

// Result is one scored round as it is kept in the game history.
type Result struct {
	ID         string          `json:"id"`
	Value      decimal.Decimal `json:"value"` // one decimal place
	Deltas     Deltas          `json:"deltas"`
	Bock       string          `json:"bock,omitempty"`
	Multiplier int64           `json:"multiplier"`
	Options    []Option        `json:"options"`
	Winners    []string        `json:"winners"`
	Losers     []string        `json:"losers"`
	Outcome    Outcome         `json:"outcome"`
}

// DisplayOptions returns the options with numbered slots collapsed.
func (r Result) DisplayOptions() []string {
	out := make([]string, len(r.Options))
	for i, o := range r.Options {
		out[i] = o.Display()
	}
	return out
}

// IsBock reports whether the round was played under at least one debt.
func (r Result) IsBock() bool { return r.Bock != "" }

// Play scores d under the debts in q and returns the result together with the
// queue for the following round. q is left untouched.
func Play(rs *Ruleset, v Values, q Queue, participants []string, d Declaration) (Result, Queue) {
	value := Evaluate(d, rs, v, q.Pending())
	winners, losers := d.Partition(participants)
	solo := d.Game == GameSolo

	r := Result{
		Value:      value.Round(1),
		Deltas:     Distribute(value, participants, winners, losers, solo),
		Bock:       q.Label(),
		Multiplier: q.Multiplier(),
		Options:    d.Options(),
		Winners:    winners,
		Losers:     losers,
		Outcome:    Classify(solo, len(winners), len(losers)),
	}
	next := q.Advance(rs.TriggerCount(d.Set()), len(participants))
	return r, next
}
