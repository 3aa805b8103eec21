package doko

import (
	"slices"
	"strings"
)

// Token marks one pending Bock round inside a debt. Tokens only feed the
// round label; arithmetic looks at queue length alone.
type Token int

const (
	TokenB Token = iota
	TokenO
	TokenC
	TokenK
	TokenS
	TokenD
	TokenA
)

// alphabet is both the order new debts are stamped in and the label sort order.
var alphabet = [...]string{"B", "O", "C", "K", "S", "D", "A"}

// MaxParticipants is the largest table a debt can be stamped for.
const MaxParticipants = len(alphabet)

func (t Token) String() string {
	if t < 0 || int(t) >= len(alphabet) {
		return "?"
	}
	return alphabet[t]
}

// Debt is one Bock obligation: one token per round still to be played doubled.
type Debt []Token

// NewDebt stamps a debt for a table of n participants.
func NewDebt(n int) Debt {
	n = min(n, MaxParticipants)
	if n <= 0 {
		return nil
	}
	d := make(Debt, n)
	for i := range d {
		d[i] = Token(i)
	}
	return d
}

func (d Debt) String() string {
	var b strings.Builder
	for _, t := range d {
		b.WriteString(t.String())
	}
	return b.String()
}

// Queue holds the outstanding Bock debts in creation order. Its length is the
// doubling exponent for the next round. Methods never modify the receiver.
type Queue []Debt

// Pending is the number of doublings the next round is played with.
func (q Queue) Pending() int { return len(q) }

// Multiplier is 2^Pending.
func (q Queue) Multiplier() int64 { return Multiplier(len(q)) }

// Consume discharges one round from every debt and drops exhausted ones.
func (q Queue) Consume() Queue {
	out := make(Queue, 0, len(q))
	for _, d := range q {
		if len(d) > 1 {
			out = append(out, slices.Clone(d[1:]))
		}
	}
	return out
}

// Push appends count fresh debts stamped for n participants.
func (q Queue) Push(count, n int) Queue {
	out := slices.Clone(q)
	if out == nil {
		out = Queue{}
	}
	for i := 0; i < count; i++ {
		d := NewDebt(n)
		if d == nil {
			break
		}
		out = append(out, d)
	}
	return out
}

// Advance is the transition after a round: consume, then enqueue one debt per
// satisfied trigger.
func (q Queue) Advance(triggers, n int) Queue {
	return q.Consume().Push(triggers, n)
}

// Label shows which debts a round is played under: the leading token of each
// debt, ordered by alphabet. Empty when no debt is pending.
func (q Queue) Label() string {
	heads := make([]Token, 0, len(q))
	for _, d := range q {
		if len(d) > 0 {
			heads = append(heads, d[0])
		}
	}
	slices.Sort(heads)
	return Debt(heads).String()
}

// Clone returns a deep copy.
func (q Queue) Clone() Queue {
	out := make(Queue, len(q))
	for i, d := range q {
		out[i] = slices.Clone(d)
	}
	return out
}

// Replay rebuilds the queue from scratch by advancing an empty queue over
// every round's declared options in chronological order.
func Replay(rs *Ruleset, history [][]Option, n int) Queue {
	q := Queue{}
	for _, opts := range history {
		q = q.Advance(rs.TriggerCount(NewOptionSet(opts...)), n)
	}
	return q
}
