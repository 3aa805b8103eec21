package doko

import (
	"errors"
	"fmt"
)

var (
	ErrNoGameType           = errors.New("no game type declared")
	ErrConflictingGameTypes = errors.New("more than one game type declared")
	ErrUnknownOption        = errors.New("option not in ruleset vocabulary")
	ErrExcludedOption       = errors.New("option cannot be combined with game type")
	ErrParticipantCount     = errors.New("wrong number of active participants")
	ErrInvalidStatus        = errors.New("invalid participant status")
)

// Status is a participant's part in one round.
type Status int

const (
	StatusNeutral Status = iota
	StatusWon
	StatusLost
)

var statusNames = map[Status]string{
	StatusNeutral: "neutral",
	StatusWon:     "won",
	StatusLost:    "lost",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for k, n := range statusNames {
		if n == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, string(b))
}

// Declaration is a validated round: one game type, a set of orthogonal
// modifiers, and each participant's status. Build it with NewDeclaration.
type Declaration struct {
	Game      GameType
	Modifiers OptionSet
	Statuses  map[string]Status
	options   []Option
}

// NewDeclaration validates options and statuses against rs. The returned
// declaration always carries exactly one game type.
func NewDeclaration(rs *Ruleset, options []Option, statuses map[string]Status) (Declaration, error) {
	d := Declaration{Modifiers: OptionSet{}, Statuses: make(map[string]Status, len(statuses))}
	for _, o := range options {
		if !rs.Known(o) {
			return Declaration{}, fmt.Errorf("%w: %q", ErrUnknownOption, o)
		}
		if g := gameTypeOf(o); g != GameNone {
			if d.Game != GameNone && d.Game != g {
				return Declaration{}, fmt.Errorf("%w: %s and %s", ErrConflictingGameTypes, d.Game, g)
			}
			d.Game = g
			continue
		}
		d.Modifiers[o] = struct{}{}
	}
	if d.Game == GameNone {
		return Declaration{}, ErrNoGameType
	}
	if d.Game == GameSolo {
		for _, o := range rs.SoloExcludes {
			if d.Modifiers.Has(o) {
				return Declaration{}, fmt.Errorf("%w: %q with %s", ErrExcludedOption, o, GameSolo)
			}
		}
	} else if d.Modifiers.Has(OptionSoloLost) {
		return Declaration{}, fmt.Errorf("%w: %q with %s", ErrExcludedOption, OptionSoloLost, d.Game)
	}

	active := 0
	for id, s := range statuses {
		if _, ok := statusNames[s]; !ok {
			return Declaration{}, fmt.Errorf("%w: %s=%d", ErrInvalidStatus, id, int(s))
		}
		if s != StatusNeutral {
			active++
		}
		d.Statuses[id] = s
	}
	if !rs.Participants.Allows(active) {
		want := fmt.Sprintf("exactly %d", rs.Participants.Active)
		if rs.Participants.AtMost {
			want = fmt.Sprintf("1 to %d", rs.Participants.Active)
		}
		return Declaration{}, fmt.Errorf("%w: got %d, want %s", ErrParticipantCount, active, want)
	}

	all := NewOptionSet(d.Game.Option())
	for o := range d.Modifiers {
		all[o] = struct{}{}
	}
	d.options = all.Sorted(rs.Vocabulary)
	return d, nil
}

// Options returns the game type and modifiers in vocabulary order.
func (d Declaration) Options() []Option {
	return d.options
}

// Has reports whether o was declared, game type included.
func (d Declaration) Has(o Option) bool {
	return d.Game.Option() == o || d.Modifiers.Has(o)
}

// Set returns every declared option as a set.
func (d Declaration) Set() OptionSet {
	return NewOptionSet(d.options...)
}

// Partition splits participants into winners and losers, keeping their order.
func (d Declaration) Partition(participants []string) (winners, losers []string) {
	for _, id := range participants {
		switch d.Statuses[id] {
		case StatusWon:
			winners = append(winners, id)
		case StatusLost:
			losers = append(losers, id)
		}
	}
	return winners, losers
}
