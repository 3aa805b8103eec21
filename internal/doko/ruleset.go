package doko

import "slices"

// CountRule limits how many participants may be active (won or lost) in a round.
type CountRule struct {
	Active int  // required, or maximum if AtMost
	AtMost bool // allow 1..Active instead of exactly Active
}

// Allows reports whether n active participants satisfy the rule.
func (c CountRule) Allows(n int) bool {
	if c.AtMost {
		return n >= 1 && n <= c.Active
	}
	return n == c.Active
}

// Bonus is an additive adjustment worth one win value, applied after all doubling.
type Bonus struct {
	Option Option
	Sign   int // +1 or -1
}

// Trigger enqueues one Bock debt when every option in AllOf was declared.
type Trigger struct {
	Name  string
	AllOf []Option
}

func (t Trigger) satisfied(opts OptionSet) bool {
	if len(t.AllOf) == 0 {
		return false
	}
	for _, o := range t.AllOf {
		if !opts.Has(o) {
			return false
		}
	}
	return true
}

// Ruleset parameterizes the engine with one table's house rules.
type Ruleset struct {
	Name         string
	Vocabulary   []Option
	NonDoubling  []Option
	Bonuses      []Bonus
	Triggers     []Trigger
	SoloExcludes []Option // options that cannot be combined with a solo
	Participants CountRule
}

// Known reports whether o belongs to the ruleset's vocabulary.
func (rs *Ruleset) Known(o Option) bool {
	return slices.Contains(rs.Vocabulary, o)
}

// Doubles reports whether declaring o doubles the round value.
func (rs *Ruleset) Doubles(o Option) bool {
	return !slices.Contains(rs.NonDoubling, o)
}

// TriggerCount returns how many Bock debts the declared options enqueue.
func (rs *Ruleset) TriggerCount(opts OptionSet) int {
	n := 0
	for _, t := range rs.Triggers {
		if t.satisfied(opts) {
			n++
		}
	}
	return n
}

const (
	RulesetCanonical = "canonical"
	RulesetSheep     = "sheep"
)

var announcements = []Option{
	OptionNo90, OptionNo60, OptionNo30, OptionBlack,
	OptionNo90Lost, OptionNo60Lost, OptionNo30Lost, OptionBlackLost,
	OptionNo90Said, OptionNo60Said, OptionNo30Said, OptionBlackSaid,
	OptionRe, OptionKontra,
}

var foxes = []Option{OptionFoxCaught1, OptionFoxCaught2, OptionFoxLost1, OptionFoxLost2}

// Canonical is the ruleset with fox bonuses, exactly four active players, and
// Bock rounds after every solo and every Re/Kontra pair.
func Canonical() *Ruleset {
	vocab := []Option{OptionWin, OptionLoss, OptionSolo, OptionSoloLost}
	vocab = append(vocab, announcements...)
	vocab = append(vocab, foxes...)
	return &Ruleset{
		Name:        RulesetCanonical,
		Vocabulary:  vocab,
		NonDoubling: append([]Option{OptionWin, OptionLoss, OptionSolo}, foxes...),
		Bonuses: []Bonus{
			{Option: OptionFoxCaught1, Sign: 1},
			{Option: OptionFoxCaught2, Sign: 1},
			{Option: OptionFoxLost1, Sign: -1},
			{Option: OptionFoxLost2, Sign: -1},
		},
		Triggers: []Trigger{
			{Name: "solo", AllOf: []Option{OptionSolo}},
			{Name: "re-kontra", AllOf: []Option{OptionRe, OptionKontra}},
		},
		SoloExcludes: slices.Clone(foxes),
		Participants: CountRule{Active: 4},
	}
}

// Sheep is the variant without foxes: a lost sheep costs one win value, up to
// four players may be active, and Re and Kontra each start their own Bock.
func Sheep() *Ruleset {
	vocab := []Option{OptionWin, OptionLoss, OptionSolo, OptionSoloLost}
	vocab = append(vocab, announcements...)
	vocab = append(vocab, OptionSheepLost)
	return &Ruleset{
		Name:        RulesetSheep,
		Vocabulary:  vocab,
		NonDoubling: []Option{OptionWin, OptionLoss, OptionSolo, OptionSheepLost},
		Bonuses:     []Bonus{{Option: OptionSheepLost, Sign: -1}},
		Triggers: []Trigger{
			{Name: "solo", AllOf: []Option{OptionSolo}},
			{Name: "re", AllOf: []Option{OptionRe}},
			{Name: "kontra", AllOf: []Option{OptionKontra}},
		},
		SoloExcludes: []Option{OptionSheepLost},
		Participants: CountRule{Active: 4, AtMost: true},
	}
}

// Builtin returns a fresh copy of a compiled-in ruleset.
func Builtin(name string) (*Ruleset, bool) {
	switch name {
	case RulesetCanonical:
		return Canonical(), true
	case RulesetSheep:
		return Sheep(), true
	}
	return nil, false
}

// BuiltinNames lists the compiled-in rulesets.
func BuiltinNames() []string {
	return []string{RulesetCanonical, RulesetSheep}
}
