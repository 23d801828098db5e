// Package releasenotes renders the notes of a release run.
package releasenotes

import (
	"context"
	"fmt"
	"time"

	"github.com/alan/commit-wizard/internal/analyzer"
	"github.com/alan/commit-wizard/internal/github"
	"github.com/alan/commit-wizard/internal/notes"
	"github.com/alan/commit-wizard/internal/release"
)

// Name is the target name used in configuration.
const Name = "release-notes"

// Options configure the notes target.
type Options struct {
	// Hidden overrides notes.DefaultHidden when non-nil.
	Hidden  []string
	ShowAll bool
	// Now stamps the notes; defaults to time.Now.
	Now func() time.Time
}

// Target implements the generateNotes phase.
type Target struct {
	release.Base
	opts Options
}

// New creates a notes target.
func New(opts Options) *Target {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Target{opts: opts}
}

// Name returns "release-notes".
func (t *Target) Name() string { return Name }

// Capabilities reports generateNotes.
func (t *Target) Capabilities() release.Capability { return release.CanGenerateNotes }

// GenerateNotes renders the run's commits. Commit and compare links are added
// when the repository URL points at GitHub.
func (t *Target) GenerateNotes(_ context.Context, rc *release.Context) (string, error) {
	opts := t.notesOptions(rc)
	verdict := analyzer.Verdict{Severity: rc.NextRelease.Severity, NextVersion: rc.NextRelease.Version}
	out := notes.Generate(rc.Commits, verdict, opts)

	log := rc.LoggerFor(release.PhaseGenerateNotes, Name)
	log.Debug().
		Int("bytes", len(out)).
		Bool("linked", opts.CommitURL != "").
		Msg("notes generated")
	return out, nil
}

func (t *Target) notesOptions(rc *release.Context) notes.Options {
	opts := notes.Options{
		Date:    t.opts.Now(),
		Hidden:  t.opts.Hidden,
		ShowAll: t.opts.ShowAll,
	}

	owner, repo, err := github.ParseRepositoryURL(rc.RepositoryURL)
	if err != nil {
		return opts
	}
	base := github.HTMLURL(owner, repo)
	opts.CommitURL = base + "/commit/%s"
	if rc.LastRelease.Tag != "" && rc.NextRelease.Tag != "" {
		opts.CompareURL = fmt.Sprintf("%s/compare/%s...%s", base, rc.LastRelease.Tag, rc.NextRelease.Tag)
	}
	return opts
}
