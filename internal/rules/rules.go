// Package rules maps commit headers to semantic version bump severities.
//
// A Table is plain data so configurations can replace it without touching the
// classifier.
package rules

import (
	"fmt"
	"strings"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/header"
)

// Severity is the magnitude of a version bump.
type Severity int

const (
	// None triggers no release.
	None Severity = iota
	// Patch increments the patch version.
	Patch
	// Minor increments the minor version and resets patch.
	Minor
	// Major increments the major version and resets minor and patch.
	Major
)

// String returns the lowercase token for s.
func (s Severity) String() string {
	switch s {
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	default:
		return "none"
	}
}

// ParseSeverity converts a token to a Severity. The empty string and "false"
// mean None.
func ParseSeverity(token string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "none", "false":
		return None, nil
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	default:
		return None, cwerrors.Wrapf(cwerrors.ErrConfig, "unknown release severity %q", token)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Max returns the higher of two severities.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// Rule assigns a severity to commits of one type. With BreakingOnly set the
// rule only matches breaking commits.
type Rule struct {
	Type         string   `mapstructure:"type" json:"type" yaml:"type"`
	BreakingOnly bool     `mapstructure:"breaking" json:"breaking,omitempty" yaml:"breaking,omitempty"`
	Severity     Severity `mapstructure:"release" json:"release" yaml:"release"`
}

// Matches reports whether the rule applies to h.
func (r Rule) Matches(h header.Header) bool {
	if r.Type != h.Type {
		return false
	}
	return !r.BreakingOnly || h.Breaking
}

// Table is an ordered rule list; the first matching rule wins.
type Table []Rule

// Match returns the severity of the first rule matching h, or None.
func (t Table) Match(h header.Header) Severity {
	for _, r := range t {
		if r.Matches(h) {
			return r.Severity
		}
	}
	return None
}

// Validate checks every rule names a type.
func (t Table) Validate() error {
	for i, r := range t {
		if strings.TrimSpace(r.Type) == "" {
			return cwerrors.Wrapf(cwerrors.ErrConfig, "release rule %d has no type", i)
		}
	}
	return nil
}

// Default is the minimal rule set: breaking features are major, features are
// minor and fixes are patch.
func Default() Table {
	return Table{
		{Type: "feat", BreakingOnly: true, Severity: Major},
		{Type: "feat", Severity: Minor},
		{Type: "fix", Severity: Patch},
	}
}

// ExtendedPatchTypes are the types the extended rule set releases as patches.
var ExtendedPatchTypes = []string{"docs", "style", "refactor", "perf", "test", "build", "ci", "chore", "revert"}

// Extended is Default plus a patch release for every other conventional type.
func Extended() Table {
	t := Default()
	for _, typ := range ExtendedPatchTypes {
		t = append(t, Rule{Type: typ, Severity: Patch})
	}
	return t
}

// Named rule set identifiers accepted by ByName.
const (
	SetDefault  = "default"
	SetExtended = "extended"
)

// ByName returns the built-in table with the given name.
func ByName(name string) (Table, error) {
	switch strings.ToLower(name) {
	case SetDefault:
		return Default(), nil
	case "", SetExtended:
		return Extended(), nil
	default:
		return nil, cwerrors.Wrapf(cwerrors.ErrConfig, "unknown rule set %q", name)
	}
}

// String renders the table as "type[!]=severity" pairs.
func (t Table) String() string {
	parts := make([]string, 0, len(t))
	for _, r := range t {
		typ := r.Type
		if r.BreakingOnly {
			typ += "!"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", typ, r.Severity))
	}
	return strings.Join(parts, ",")
}
