// Package gitrepo commits release assets, tags the release and pushes both to
// the remote with go-git.
package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/vcs"
)

// Name is the target name used in configuration.
const Name = "git"

// DefaultMessage is the release commit message; %s is the version.
const DefaultMessage = "chore(release): %s [skip ci]"

// Repository is the subset of *vcs.Repo the target uses.
type Repository interface {
	Branch() (string, error)
	Stage(paths ...string) error
	HasStagedChanges() (bool, error)
	Commit(message string, author *object.Signature) (string, error)
	CreateTag(name, message string, tagger *object.Signature) error
	PushURL(remote string) (string, error)
	Push(ctx context.Context, remote, token, branch string, tags ...string) error
}

var _ Repository = (*vcs.Repo)(nil)

// Options configure the git target.
type Options struct {
	// Branch is the release branch HEAD must be on.
	Branch string
	Remote string
	// Assets are staged and committed before tagging.
	Assets []string
	// Message is the release commit message format.
	Message string
	// Signer returns the author of release commits and tags; defaults to
	// vcs.Signature.
	Signer func() *object.Signature
}

// Target implements verifyConditions and prepare.
type Target struct {
	release.Base
	repo Repository
	opts Options
}

// New creates a git target for repo. A nil repo fails verification.
func New(repo Repository, opts Options) *Target {
	if opts.Branch == "" {
		opts.Branch = release.DefaultBranch
	}
	if opts.Remote == "" {
		opts.Remote = vcs.DefaultRemote
	}
	if opts.Message == "" {
		opts.Message = DefaultMessage
	}
	if opts.Signer == nil {
		opts.Signer = vcs.Signature
	}
	return &Target{repo: repo, opts: opts}
}

// Name returns "git".
func (t *Target) Name() string { return Name }

// Capabilities reports verifyConditions and prepare.
func (t *Target) Capabilities() release.Capability {
	return release.CanVerifyConditions | release.CanPrepare
}

// VerifyConditions checks the repository and the current branch, then that
// the push token is set and the remote accepts it.
func (t *Target) VerifyConditions(_ context.Context, rc *release.Context) error {
	if t.repo == nil {
		return cwerrors.NewPreconditionError(Name, "no git repository")
	}
	branch, err := t.repo.Branch()
	if err != nil {
		return cwerrors.NewPreconditionError(Name, err.Error())
	}
	if branch != t.opts.Branch {
		return cwerrors.NewPreconditionError(Name,
			fmt.Sprintf("releases are made from branch %s, current branch is %s", t.opts.Branch, branch))
	}
	if rc.Token() == "" {
		return cwerrors.NewPreconditionError(Name, "GITHUB_TOKEN or GH_TOKEN is required to push")
	}
	if _, err := t.repo.PushURL(t.opts.Remote); err != nil {
		return cwerrors.NewPreconditionError(Name, err.Error())
	}
	return nil
}

// Prepare commits the assets when they changed, tags HEAD with the release tag
// and pushes the branch and the tag.
func (t *Target) Prepare(ctx context.Context, rc *release.Context) error {
	log := rc.LoggerFor(release.PhasePrepare, Name)
	version := rc.NextRelease.Version.String()
	tag := rc.NextRelease.Tag

	if len(t.opts.Assets) > 0 {
		if err := t.repo.Stage(t.opts.Assets...); err != nil {
			return err
		}
		staged, err := t.repo.HasStagedChanges()
		if err != nil {
			return err
		}
		if staged {
			message := t.message(version, rc.NextRelease.Notes)
			hash, err := t.repo.Commit(message, t.opts.Signer())
			if err != nil {
				return err
			}
			log.Info().Str("commit", hash).Strs("assets", t.opts.Assets).Msg("release assets committed")
		} else {
			log.Debug().Msg("release assets unchanged")
		}
	}

	if err := t.repo.CreateTag(tag, "Release "+tag, t.opts.Signer()); err != nil {
		return err
	}
	log.Info().Str("tag", tag).Msg("tag created")

	if err := t.repo.Push(ctx, t.opts.Remote, rc.Token(), t.opts.Branch, tag); err != nil {
		return &cwerrors.IOError{Op: "push", Path: t.opts.Remote, Err: err}
	}
	log.Info().Str("remote", t.opts.Remote).Str("branch", t.opts.Branch).Msg("pushed release")
	return nil
}

// message renders the commit message with the notes as its body.
func (t *Target) message(version, notes string) string {
	header := fmt.Sprintf(t.opts.Message, version)
	if notes = strings.TrimSpace(notes); notes == "" {
		return header
	}
	return header + "\n\n" + notes
}
