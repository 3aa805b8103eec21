package doko

import (
	"slices"
	"strings"
)

// Option is one tag of the game vocabulary a round can be declared with.
// The values are the labels players know from the table, so they double as
// the stored and displayed form.
type Option string

const (
	// game types; exactly one per round
	OptionWin  Option = "Alten gewinnen"
	OptionLoss Option = "Alten verlieren"
	OptionSolo Option = "Solo"

	OptionSoloLost Option = "Solo verloren"

	// played by the winning side
	OptionNo90  Option = "Keine 90"
	OptionNo60  Option = "Keine 60"
	OptionNo30  Option = "Keine 30"
	OptionBlack Option = "schwarz"

	// played against the declaring side
	OptionNo90Lost  Option = "Keine 90 verloren"
	OptionNo60Lost  Option = "Keine 60 verloren"
	OptionNo30Lost  Option = "Keine 30 verloren"
	OptionBlackLost Option = "schwarz verloren"

	// announced but not made
	OptionNo90Said  Option = "Keine 90 gesagt"
	OptionNo60Said  Option = "Keine 60 gesagt"
	OptionNo30Said  Option = "Keine 30 gesagt"
	OptionBlackSaid Option = "schwarz gesagt"

	OptionRe     Option = "Re"
	OptionKontra Option = "Kontra"

	// two foxes per deck, hence two slots each
	OptionFoxCaught1 Option = "Fuchs gefangen 1"
	OptionFoxCaught2 Option = "Fuchs gefangen 2"
	OptionFoxLost1   Option = "Fuchs verloren 1"
	OptionFoxLost2   Option = "Fuchs verloren 2"

	OptionSheepLost Option = "Schaf verloren"
)

// Display collapses numbered slots into the label shown in round details,
// e.g. "Fuchs gefangen 2" -> "Fuchs gefangen".
func (o Option) Display() string {
	s := string(o)
	for _, prefix := range []string{"Fuchs gefangen", "Fuchs verloren"} {
		if strings.HasPrefix(s, prefix) {
			return prefix
		}
	}
	return s
}

// GameType is the mutually exclusive kind of a round.
type GameType int

const (
	GameNone GameType = iota
	GameWin
	GameLoss
	GameSolo
)

var gameTypeNames = map[GameType]string{
	GameNone: "None",
	GameWin:  "Win",
	GameLoss: "Loss",
	GameSolo: "Solo",
}

func (g GameType) String() string {
	if s, ok := gameTypeNames[g]; ok {
		return s
	}
	return "Unknown"
}

// Option returns the vocabulary tag selecting this game type.
func (g GameType) Option() Option {
	switch g {
	case GameWin:
		return OptionWin
	case GameLoss:
		return OptionLoss
	case GameSolo:
		return OptionSolo
	}
	return ""
}

func gameTypeOf(o Option) GameType {
	switch o {
	case OptionWin:
		return GameWin
	case OptionLoss:
		return GameLoss
	case OptionSolo:
		return GameSolo
	}
	return GameNone
}

// OptionSet is an unordered set of declared options.
type OptionSet map[Option]struct{}

// NewOptionSet builds a set from tags; duplicates collapse.
func NewOptionSet(opts ...Option) OptionSet {
	s := make(OptionSet, len(opts))
	for _, o := range opts {
		s[o] = struct{}{}
	}
	return s
}

func (s OptionSet) Has(o Option) bool {
	_, ok := s[o]
	return ok
}

// Sorted returns the options ordered by their position in vocab; options
// missing from vocab trail in lexical order.
func (s OptionSet) Sorted(vocab []Option) []Option {
	out := make([]Option, 0, len(s))
	for o := range s {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b Option) int {
		ia, ib := slices.Index(vocab, a), slices.Index(vocab, b)
		switch {
		case ia < 0 && ib < 0:
			return strings.Compare(string(a), string(b))
		case ia < 0:
			return 1
		case ib < 0:
			return -1
		}
		return ia - ib
	})
	return out
}
