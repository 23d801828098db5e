// Package analyzer classifies commits against a release rule table and
// computes the next semantic version.
package analyzer

import (
	"iter"

	"github.com/Masterminds/semver/v3"

	"github.com/alan/commit-wizard/internal/rules"
)

// FirstRelease is the version used when a repository has no release yet.
var FirstRelease = semver.MustParse("1.0.0")

// Verdict is the outcome of classifying a commit range. NextVersion is nil
// when Severity is None.
type Verdict struct {
	Severity    rules.Severity
	NextVersion *semver.Version
}

// Released reports whether the verdict warrants a release.
func (v Verdict) Released() bool {
	return v.Severity != rules.None
}

// Severities yields the severity of each commit in order. Invalid commits
// yield None. The sequence is evaluated lazily.
func Severities(commits []Commit, t rules.Table) iter.Seq[rules.Severity] {
	return func(yield func(rules.Severity) bool) {
		for _, c := range commits {
			if !yield(Severity(c, t)) {
				return
			}
		}
	}
}

// Severity classifies a single commit. A BREAKING CHANGE footer counts as a
// breaking marker.
func Severity(c Commit, t rules.Table) rules.Severity {
	if !c.Valid {
		return rules.None
	}
	h := c.Header
	h.Breaking = c.Breaking()
	return t.Match(h)
}

// Reduce returns the highest severity in seq, stopping at the first Major.
func Reduce(seq iter.Seq[rules.Severity]) rules.Severity {
	result := rules.None
	for s := range seq {
		result = rules.Max(result, s)
		if result == rules.Major {
			break
		}
	}
	return result
}

// Classify reduces the commits to one severity and computes the version that
// follows last. A nil last means the repository has never been released.
func Classify(commits []Commit, t rules.Table, last *semver.Version) Verdict {
	s := Reduce(Severities(commits, t))
	return Verdict{Severity: s, NextVersion: Next(last, s)}
}

// Next returns the version that follows last for severity s, or nil for None.
// The first release of a repository is always FirstRelease.
func Next(last *semver.Version, s rules.Severity) *semver.Version {
	if s == rules.None {
		return nil
	}
	if last == nil {
		v := *FirstRelease
		return &v
	}
	return Bump(last, s)
}

// Bump increments v according to s. None returns a copy of v.
func Bump(v *semver.Version, s rules.Severity) *semver.Version {
	var next semver.Version
	switch s {
	case rules.Major:
		next = v.IncMajor()
	case rules.Minor:
		next = v.IncMinor()
	case rules.Patch:
		next = v.IncPatch()
	default:
		next = *v
	}
	return &next
}
