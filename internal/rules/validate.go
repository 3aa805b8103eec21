package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xtding233/doko-backend/internal/doko"
)

// ValidateRaw checks semantic constraints of a merged RawRuleset.
func ValidateRaw(cfg RawRuleset) error {
	var errs []string

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, "name is required")
	}

	// participants
	if cfg.Participants == nil || cfg.Participants.Active == nil {
		errs = append(errs, "participants.active is required")
	} else if a := *cfg.Participants.Active; a < 1 || a > doko.MaxParticipants {
		errs = append(errs, fmt.Sprintf("participants.active must be in [1,%d]", doko.MaxParticipants))
	}

	// vocabulary
	if len(cfg.Vocabulary) == 0 {
		errs = append(errs, "vocabulary must not be empty")
	}
	for _, g := range []doko.Option{doko.OptionWin, doko.OptionLoss, doko.OptionSolo} {
		if !slices.Contains(cfg.Vocabulary, string(g)) {
			errs = append(errs, fmt.Sprintf("vocabulary must contain %q", g))
		}
		if len(cfg.NonDoubling) > 0 && !slices.Contains(cfg.NonDoubling, string(g)) {
			errs = append(errs, fmt.Sprintf("non_doubling must contain game type %q", g))
		}
	}
	known := func(field string, opts []string) {
		for i, o := range opts {
			if !slices.Contains(cfg.Vocabulary, o) {
				errs = append(errs, fmt.Sprintf("%s[%d] %q is not in vocabulary", field, i, o))
			}
		}
	}
	known("non_doubling", cfg.NonDoubling)
	known("solo_excludes", cfg.SoloExcludes)

	// bonuses
	for i, b := range cfg.Bonuses {
		if b.Sign != 1 && b.Sign != -1 {
			errs = append(errs, fmt.Sprintf("bonuses[%d].sign must be 1 or -1", i))
		}
		if !slices.Contains(cfg.Vocabulary, b.Option) {
			errs = append(errs, fmt.Sprintf("bonuses[%d].option %q is not in vocabulary", i, b.Option))
		}
	}

	// triggers
	for i, t := range cfg.Triggers {
		if len(t.AllOf) == 0 {
			errs = append(errs, fmt.Sprintf("triggers[%d].all_of must not be empty", i))
		}
		known(fmt.Sprintf("triggers[%d].all_of", i), t.AllOf)
	}

	if len(errs) > 0 {
		return fmt.Errorf("ruleset validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
