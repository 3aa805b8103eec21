package doko

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Values are the configured base values of a game, in raw units (100 = 1 point).
type Values struct {
	Win  decimal.Decimal
	Loss decimal.Decimal
	Solo decimal.Decimal
}

// ParseValues reads the "win/loss" pair and the solo value as entered at the
// table. Fields after the second are ignored; a field without a leading
// number counts as 0.
func ParseValues(pair, solo string) Values {
	fields := strings.Split(pair, "/")
	var loss string
	if len(fields) > 1 {
		loss = fields[1]
	}
	return Values{
		Win:  parseValue(fields[0]),
		Loss: parseValue(loss),
		Solo: parseValue(solo),
	}
}

// leadingNumber matches the longest decimal literal at the start of a field.
// Trailing text is ignored and "," is not a decimal separator.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

var danglingPoint = strings.NewReplacer(".e", "e", ".E", "E")

func parseValue(s string) decimal.Decimal {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	m = strings.TrimSuffix(strings.TrimPrefix(m, "+"), ".")
	m = danglingPoint.Replace(m)
	if strings.HasPrefix(m, ".") || strings.HasPrefix(m, "-.") {
		m = strings.Replace(m, ".", "0.", 1)
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}
