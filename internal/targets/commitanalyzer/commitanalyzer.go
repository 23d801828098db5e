// Package commitanalyzer classifies the commits of a release run with a rule
// table.
package commitanalyzer

import (
	"context"

	"github.com/alan/commit-wizard/internal/analyzer"
	"github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/rules"
)

// Name is the target name used in configuration.
const Name = "commit-analyzer"

// Target implements the analyzeCommits phase.
type Target struct {
	release.Base
	table rules.Table
}

// New creates a commit analyzer for table.
func New(table rules.Table) *Target {
	return &Target{table: table}
}

// Name returns "commit-analyzer".
func (t *Target) Name() string { return Name }

// Capabilities reports verifyConditions and analyzeCommits.
func (t *Target) Capabilities() release.Capability {
	return release.CanVerifyConditions | release.CanAnalyzeCommits
}

// VerifyConditions checks the rule table.
func (t *Target) VerifyConditions(_ context.Context, _ *release.Context) error {
	return t.table.Validate()
}

// AnalyzeCommits returns the highest severity among the run's commits.
func (t *Target) AnalyzeCommits(_ context.Context, rc *release.Context) (rules.Severity, error) {
	log := rc.LoggerFor(release.PhaseAnalyzeCommits, Name)

	invalid := 0
	for _, c := range rc.Commits {
		if !c.Valid {
			invalid++
			log.Debug().Str("commit", c.ShortHash()).Msg("commit header does not follow the convention")
		}
	}

	severity := analyzer.Reduce(analyzer.Severities(rc.Commits, t.table))
	log.Info().
		Int("commits", len(rc.Commits)).
		Int("invalid", invalid).
		Str("severity", severity.String()).
		Msg("commits analyzed")
	return severity, nil
}
