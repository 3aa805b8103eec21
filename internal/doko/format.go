package doko

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders points with the decimal separator of a locale.
type Formatter struct {
	tag language.Tag
	p   *message.Printer
}

// NewFormatter builds a formatter for tag; an unparsable locale falls back to German.
func NewFormatter(locale string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.German
	}
	return Formatter{tag: tag, p: message.NewPrinter(tag)}
}

func (f Formatter) Tag() language.Tag { return f.tag }

// Points formats d with exactly one fractional digit and no digit grouping,
// e.g. "-0,5" or "1234,5" for German.
func (f Formatter) Points(d decimal.Decimal) string {
	v, _ := d.Round(1).Float64()
	if f.p == nil {
		return d.StringFixed(1)
	}
	return f.p.Sprintf("%v", number.Decimal(v, number.Scale(1), number.NoSeparator()))
}

// Signed is Points with a leading "+" for values above zero.
func (f Formatter) Signed(d decimal.Decimal) string {
	if d.Round(1).IsPositive() {
		return "+" + f.Points(d)
	}
	return f.Points(d)
}

// Summary renders the German round summary shown after entering a round:
// who won, the points per side, and the Bock factor if one applied.
func (f Formatter) Summary(r Result, names map[string]string) string {
	nameList := func(ids []string) string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = names[id]
			if out[i] == "" {
				out[i] = id
			}
		}
		return strings.Join(out, ", ")
	}

	var lines []string
	switch r.Outcome {
	case OutcomeSoloWon:
		lines = append(lines,
			fmt.Sprintf("Gewinner (%s): %s", nameList(r.Winners), f.Signed(r.Deltas[r.Winners[0]])),
			fmt.Sprintf("Verlierer: %s p.P.", f.Points(r.Value.Neg())))
	case OutcomeSoloLost:
		lines = append(lines,
			fmt.Sprintf("Verlierer (%s): %s", nameList(r.Losers), f.Points(r.Deltas[r.Losers[0]])),
			fmt.Sprintf("Gewinner: %s p.P.", f.Signed(r.Value)))
	default:
		lines = append(lines, "Wert: "+f.Points(r.Value))
		if len(r.Winners) > 0 {
			lines = append(lines, "Gewinner: "+nameList(r.Winners))
		}
		if len(r.Losers) > 0 {
			lines = append(lines, "Verlierer: "+nameList(r.Losers))
		}
	}
	if r.Multiplier > 1 {
		lines = append(lines, fmt.Sprintf("(Bockrunde x%d)", r.Multiplier))
	}
	return strings.Join(lines, "\n")
}
