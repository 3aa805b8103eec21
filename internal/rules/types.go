// types.go
package rules

// RawRuleset is a ruleset as written in YAML. Every field is optional so that
// files can be layered: built-in <- default.yaml <- <name>.yaml.
type RawRuleset struct {
	Version      string           `yaml:"version,omitempty"`
	Name         string           `yaml:"name,omitempty"`
	Participants *ParticipantsCfg `yaml:"participants,omitempty"`
	Vocabulary   []string         `yaml:"vocabulary,omitempty"`
	NonDoubling  []string         `yaml:"non_doubling,omitempty"`
	Bonuses      []BonusCfg       `yaml:"bonuses,omitempty"`
	Triggers     []TriggerCfg     `yaml:"triggers,omitempty"`
	SoloExcludes []string         `yaml:"solo_excludes,omitempty"`
	Notes        string           `yaml:"notes,omitempty"`
}

type ParticipantsCfg struct {
	Active *int  `yaml:"active"`
	AtMost *bool `yaml:"at_most,omitempty"`
}

type BonusCfg struct {
	Option string `yaml:"option"`
	Sign   int    `yaml:"sign"` // +1 adds a win value, -1 subtracts one
}

type TriggerCfg struct {
	Name  string   `yaml:"name"`
	AllOf []string `yaml:"all_of"`
}
