// resolve.go
package rules

import (
	"github.com/xtding233/doko-backend/internal/doko"
)

// FromRuleset converts a compiled ruleset into its YAML form; it seeds the
// merge for built-in names.
func FromRuleset(rs *doko.Ruleset) RawRuleset {
	active := rs.Participants.Active
	atMost := rs.Participants.AtMost
	raw := RawRuleset{
		Name:         rs.Name,
		Participants: &ParticipantsCfg{Active: &active, AtMost: &atMost},
		Vocabulary:   optionStrings(rs.Vocabulary),
		NonDoubling:  optionStrings(rs.NonDoubling),
		SoloExcludes: optionStrings(rs.SoloExcludes),
	}
	for _, b := range rs.Bonuses {
		raw.Bonuses = append(raw.Bonuses, BonusCfg{Option: string(b.Option), Sign: b.Sign})
	}
	for _, t := range rs.Triggers {
		raw.Triggers = append(raw.Triggers, TriggerCfg{Name: t.Name, AllOf: optionStrings(t.AllOf)})
	}
	return raw
}

// Build validates raw and turns it into an engine ruleset.
func Build(raw RawRuleset) (*doko.Ruleset, error) {
	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}
	rs := &doko.Ruleset{
		Name:         raw.Name,
		Vocabulary:   options(raw.Vocabulary),
		NonDoubling:  options(raw.NonDoubling),
		SoloExcludes: options(raw.SoloExcludes),
		Participants: doko.CountRule{Active: *raw.Participants.Active},
	}
	if raw.Participants.AtMost != nil {
		rs.Participants.AtMost = *raw.Participants.AtMost
	}
	for _, b := range raw.Bonuses {
		rs.Bonuses = append(rs.Bonuses, doko.Bonus{Option: doko.Option(b.Option), Sign: b.Sign})
	}
	for _, t := range raw.Triggers {
		rs.Triggers = append(rs.Triggers, doko.Trigger{Name: t.Name, AllOf: options(t.AllOf)})
	}
	return rs, nil
}

func optionStrings(in []doko.Option) []string {
	out := make([]string, len(in))
	for i, o := range in {
		out[i] = string(o)
	}
	return out
}

func options(in []string) []doko.Option {
	out := make([]doko.Option, len(in))
	for i, s := range in {
		out[i] = doko.Option(s)
	}
	return out
}
