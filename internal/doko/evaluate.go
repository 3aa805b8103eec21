package doko

import "github.com/shopspring/decimal"

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Evaluate computes the value of a round in points.
//   - base is the solo, win, or loss value depending on the game type
//   - every declared option outside rs.NonDoubling doubles it
//   - pending Bock debts double it once each
//   - bonuses add or subtract one win value each, undoubled
//   - the raw total is divided by 100
func Evaluate(d Declaration, rs *Ruleset, v Values, pending int) decimal.Decimal {
	var score decimal.Decimal
	switch d.Game {
	case GameSolo:
		score = v.Solo
	case GameWin:
		score = v.Win
	case GameLoss:
		score = v.Loss
	}

	for _, o := range d.Options() {
		if rs.Doubles(o) {
			score = score.Mul(two)
		}
	}
	if pending > 0 {
		score = score.Mul(two.Pow(decimal.NewFromInt(int64(pending))))
	}

	for _, b := range rs.Bonuses {
		if d.Has(b.Option) {
			score = score.Add(v.Win.Mul(decimal.NewFromInt(int64(b.Sign))))
		}
	}
	return score.Div(hundred)
}

// Multiplier is the factor Bock debts apply to a round, 2^pending.
func Multiplier(pending int) int64 {
	if pending <= 0 {
		return 1
	}
	return 1 << pending
}
