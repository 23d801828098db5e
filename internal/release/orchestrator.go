// Package release drives publishing targets through the release lifecycle:
// verifyConditions, analyzeCommits, generateNotes, prepare, publish, then
// success or fail.
//
// Phases run one after another and targets run in list order within a phase.
// Every mutating phase verifies the run first when that has not happened yet.
package release

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/alan/commit-wizard/internal/analyzer"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/rules"
)

// Orchestrator holds the ordered targets of a release.
type Orchestrator struct {
	targets []Target
}

// New creates an orchestrator for targets in the given order.
func New(targets ...Target) *Orchestrator {
	return &Orchestrator{targets: targets}
}

// Targets returns the configured targets.
func (o *Orchestrator) Targets() []Target {
	return o.targets
}

// Result summarizes a run.
type Result struct {
	Released     bool
	DryRun       bool
	Severity     rules.Severity
	Version      *semver.Version
	Tag          string
	Notes        string
	Publications []Publication
}

// each calls fn for every target implementing p, stopping at the first error.
func (o *Orchestrator) each(rc *Context, p Phase, fn func(Target) error) error {
	for _, t := range o.targets {
		if !t.Capabilities().Has(p.Capability()) {
			continue
		}
		log := rc.LoggerFor(p, t.Name())
		log.Debug().Msg("running hook")
		if err := fn(t); err != nil {
			return &cwerrors.PhaseError{Phase: string(p), Target: t.Name(), Err: err}
		}
	}
	return nil
}

// VerifyConditions runs every verifier in order. Targets without the hook are
// verified trivially, and targets verified earlier in the run are skipped.
func (o *Orchestrator) VerifyConditions(ctx context.Context, rc *Context) error {
	for _, t := range o.targets {
		if rc.TargetVerified(t.Name()) {
			continue
		}
		if t.Capabilities().Has(CanVerifyConditions) {
			log := rc.LoggerFor(PhaseVerifyConditions, t.Name())
			log.Debug().Msg("running hook")
			if err := t.VerifyConditions(ctx, rc); err != nil {
				return &cwerrors.PhaseError{Phase: string(PhaseVerifyConditions), Target: t.Name(), Err: err}
			}
		}
		rc.markVerified(t.Name())
	}
	rc.complete = true
	return nil
}

func (o *Orchestrator) ensureVerified(ctx context.Context, rc *Context) error {
	if rc.Verified() {
		return nil
	}
	return o.VerifyConditions(ctx, rc)
}

// AnalyzeCommits reduces the severities of every analyzer. When the result is
// a release, NextRelease receives the version, tag and severity.
func (o *Orchestrator) AnalyzeCommits(ctx context.Context, rc *Context) (rules.Severity, error) {
	if err := o.ensureVerified(ctx, rc); err != nil {
		return rules.None, err
	}

	severity := rules.None
	err := o.each(rc, PhaseAnalyzeCommits, func(t Target) error {
		s, err := t.AnalyzeCommits(ctx, rc)
		if err != nil {
			return err
		}
		severity = rules.Max(severity, s)
		return nil
	})
	if err != nil {
		return rules.None, err
	}

	rc.NextRelease.Severity = severity
	rc.NextRelease.Version = analyzer.Next(rc.LastRelease.Version, severity)
	rc.NextRelease.Tag = ""
	if rc.NextRelease.Version != nil {
		rc.NextRelease.Tag = rc.Tag(rc.NextRelease.Version)
	}
	return severity, nil
}

// GenerateNotes concatenates the non-empty notes of every notes target into
// NextRelease.Notes.
func (o *Orchestrator) GenerateNotes(ctx context.Context, rc *Context) (string, error) {
	if err := o.ensureVerified(ctx, rc); err != nil {
		return "", err
	}

	var parts []string
	err := o.each(rc, PhaseGenerateNotes, func(t Target) error {
		n, err := t.GenerateNotes(ctx, rc)
		if err != nil {
			return err
		}
		if n = strings.TrimSpace(n); n != "" {
			parts = append(parts, n)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	rc.NextRelease.Notes = strings.Join(parts, "\n\n")
	return rc.NextRelease.Notes, nil
}

// Prepare runs every prepare hook in order.
func (o *Orchestrator) Prepare(ctx context.Context, rc *Context) error {
	if err := o.ensureVerified(ctx, rc); err != nil {
		return err
	}
	return o.each(rc, PhasePrepare, func(t Target) error {
		return t.Prepare(ctx, rc)
	})
}

// Publish runs every publish hook in order and collects the publications.
func (o *Orchestrator) Publish(ctx context.Context, rc *Context) ([]Publication, error) {
	if err := o.ensureVerified(ctx, rc); err != nil {
		return nil, err
	}
	return o.collect(ctx, rc, PhasePublish, Target.Publish)
}

// AddChannel promotes NextRelease to NextRelease.Channel on every target that
// supports channels.
func (o *Orchestrator) AddChannel(ctx context.Context, rc *Context) ([]Publication, error) {
	if err := o.ensureVerified(ctx, rc); err != nil {
		return nil, err
	}
	return o.collect(ctx, rc, PhaseAddChannel, Target.AddChannel)
}

func (o *Orchestrator) collect(ctx context.Context, rc *Context, p Phase,
	hook func(Target, context.Context, *Context) (*Publication, error)) ([]Publication, error) {
	var pubs []Publication
	err := o.each(rc, p, func(t Target) error {
		pub, err := hook(t, ctx, rc)
		if err != nil {
			return err
		}
		if pub != nil {
			if pub.Target == "" {
				pub.Target = t.Name()
			}
			pubs = append(pubs, *pub)
		}
		return nil
	})
	rc.Releases = append(rc.Releases, pubs...)
	return pubs, err
}

// Success notifies every target of a successful run. Hook errors are logged
// and dropped.
func (o *Orchestrator) Success(ctx context.Context, rc *Context) {
	o.notify(rc, PhaseSuccess, func(t Target) error {
		return t.Success(ctx, rc)
	})
}

// Fail notifies every target of a failed run. Hook errors are logged and
// dropped.
func (o *Orchestrator) Fail(ctx context.Context, rc *Context, cause error) {
	o.notify(rc, PhaseFail, func(t Target) error {
		return t.Fail(ctx, rc, cause)
	})
}

func (o *Orchestrator) notify(rc *Context, p Phase, fn func(Target) error) {
	for _, t := range o.targets {
		if !t.Capabilities().Has(p.Capability()) {
			continue
		}
		log := rc.LoggerFor(p, t.Name())
		if err := fn(t); err != nil {
			log.Warn().Err(err).Msg("notification hook failed")
		}
	}
}

// Run drives the full lifecycle. A verdict of no release is a successful
// result that skips notes, prepare and publish. A dry run stops after the
// notes. Any other failure calls Fail and is returned as *errors.PhaseError.
func (o *Orchestrator) Run(ctx context.Context, rc *Context) (*Result, error) {
	rc.Logger.Info().Int("commits", len(rc.Commits)).Bool("dry_run", rc.DryRun).Msg("starting release")

	fail := func(err error) (*Result, error) {
		rc.Logger.Error().Err(err).Msg("release failed")
		o.Fail(ctx, rc, err)
		return nil, err
	}

	if err := o.VerifyConditions(ctx, rc); err != nil {
		return fail(err)
	}

	severity, err := o.AnalyzeCommits(ctx, rc)
	if err != nil {
		return fail(err)
	}
	result := &Result{Severity: severity, DryRun: rc.DryRun}
	if severity == rules.None {
		rc.Logger.Info().Msg("no release: no commit warrants a version bump")
		return result, nil
	}
	result.Version = rc.NextRelease.Version
	result.Tag = rc.NextRelease.Tag
	rc.Logger.Info().Str("version", result.Version.String()).Str("severity", severity.String()).Msg("next release computed")

	if result.Notes, err = o.GenerateNotes(ctx, rc); err != nil {
		return fail(err)
	}
	if rc.DryRun {
		rc.Logger.Info().Msg("dry run: skipping prepare and publish")
		return result, nil
	}

	if err := o.Prepare(ctx, rc); err != nil {
		return fail(err)
	}
	if result.Publications, err = o.Publish(ctx, rc); err != nil {
		return fail(err)
	}
	result.Released = true

	o.Success(ctx, rc)
	rc.Logger.Info().Str("tag", result.Tag).Int("publications", len(result.Publications)).Msg("release published")
	return result, nil
}
