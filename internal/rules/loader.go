package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/doko-backend/internal/doko"
)

var ErrUnknownRuleset = errors.New("unknown ruleset")

// Paths helper for default/ruleset files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/doko/config
}

func (p Paths) Dir() string {
	return filepath.Join(p.BaseDir, "rulesets")
}
func (p Paths) DefaultPath() string {
	return filepath.Join(p.Dir(), "default.yaml")
}
func (p Paths) RulesetPath(name string) string {
	return filepath.Join(p.Dir(), name+".yaml")
}

// Loader reads YAML rulesets and merges built-in -> default -> named file.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]*doko.Ruleset
}

// NewLoader creates a ruleset loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]*doko.Ruleset),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// Ruleset returns the compiled ruleset called name. Names without a built-in
// definition need a file of their own.
func (l *Loader) Ruleset(name string) (*doko.Ruleset, error) {
	l.mu.RLock()
	rs, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return rs, nil
	}

	raw, err := l.LoadMerged(name)
	if err != nil {
		return nil, err
	}
	rs, err = Build(raw)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = rs
	l.mu.Unlock()
	return rs, nil
}

// LoadMerged loads and merges built-in -> default.yaml -> <name>.yaml without
// validating the result.
func (l *Loader) LoadMerged(name string) (RawRuleset, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return RawRuleset{}, fmt.Errorf("%w: %q", ErrUnknownRuleset, name)
	}
	defCfg, _, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawRuleset{}, fmt.Errorf("read default: %w", err)
	}
	nameCfg, found, err := readYAML(l.paths.RulesetPath(name))
	if err != nil {
		return RawRuleset{}, fmt.Errorf("read %s: %w", name, err)
	}

	var merged RawRuleset
	if rs, ok := doko.Builtin(name); ok {
		merged = FromRuleset(rs)
	} else if !found {
		return RawRuleset{}, fmt.Errorf("%w: %q", ErrUnknownRuleset, name)
	}
	merged = mergeRaw(merged, defCfg)
	merged = mergeRaw(merged, nameCfg)
	merged.Name = name
	return merged, nil
}

// Names lists built-in rulesets and every ruleset file, sorted.
func (l *Loader) Names() []string {
	names := doko.BuiltinNames()
	entries, _ := os.ReadDir(l.paths.Dir())
	for _, e := range entries {
		n, ok := strings.CutSuffix(e.Name(), ".yaml")
		if e.IsDir() || !ok || n == "default" {
			continue
		}
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// WatchPaths returns the files whose change should invalidate the cache.
func (l *Loader) WatchPaths() []string {
	paths := []string{l.paths.DefaultPath()}
	for _, n := range l.Names() {
		paths = append(paths, l.paths.RulesetPath(n))
	}
	return paths
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*doko.Ruleset)
}

// readYAML loads a YAML file into RawRuleset. Missing files return zero cfg, no error.
func readYAML(path string) (RawRuleset, bool, error) {
	var cfg RawRuleset
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawRuleset{}, false, nil
		}
		return RawRuleset{}, false, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawRuleset{}, false, err
	}
	return cfg, true, nil
}

// mergeRaw overlays b on a: scalars and pointers when set, lists replace
// whole when non-empty.
func mergeRaw(a, b RawRuleset) RawRuleset {
	out := a

	// top-level scalars
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// participants
	switch {
	case out.Participants == nil && b.Participants != nil:
		c := *b.Participants
		out.Participants = &c
	case out.Participants != nil && b.Participants != nil:
		c := *out.Participants
		if b.Participants.Active != nil {
			c.Active = b.Participants.Active
		}
		if b.Participants.AtMost != nil {
			c.AtMost = b.Participants.AtMost
		}
		out.Participants = &c
	}

	// lists
	if len(b.Vocabulary) > 0 {
		out.Vocabulary = slices.Clone(b.Vocabulary)
	}
	if len(b.NonDoubling) > 0 {
		out.NonDoubling = slices.Clone(b.NonDoubling)
	}
	if len(b.Bonuses) > 0 {
		out.Bonuses = slices.Clone(b.Bonuses)
	}
	if len(b.Triggers) > 0 {
		out.Triggers = slices.Clone(b.Triggers)
	}
	if len(b.SoloExcludes) > 0 {
		out.SoloExcludes = slices.Clone(b.SoloExcludes)
	}

	return out
}
