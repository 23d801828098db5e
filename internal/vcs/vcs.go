// Package vcs wraps the go-git operations used by commit-wizard: reading the
// release history, committing, tagging and pushing.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/github"
)

// DefaultRemote is the remote used when none is given.
const DefaultRemote = "origin"

// TokenUser is the basic auth user name paired with a hosting token.
const TokenUser = "x-access-token"

// Repo is a repository with an optional worktree.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
}

// Open opens the repository containing path, searching parent directories.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, cwerrors.NewPreconditionError("git", fmt.Sprintf("no git repository at %s: %v", path, err))
	}
	return New(r)
}

// InitMemory initializes a new repository in memory storage with fs as its
// worktree.
func InitMemory(fs billy.Filesystem) (*Repo, error) {
	r, err := git.Init(memory.NewStorage(), fs)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	return New(r)
}

// New wraps an existing go-git repository.
func New(r *git.Repository) (*Repo, error) {
	wt, err := r.Worktree()
	if err != nil && !errors.Is(err, git.ErrIsBareRepository) {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return &Repo{repo: r, worktree: wt}, nil
}

// Repository returns the underlying go-git repository.
func (r *Repo) Repository() *git.Repository {
	return r.repo
}

// Filesystem returns the worktree filesystem, or nil for bare repositories.
func (r *Repo) Filesystem() billy.Filesystem {
	if r.worktree == nil {
		return nil
	}
	return r.worktree.Filesystem
}

// Head returns the hash HEAD points at.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Branch returns the short name of the checked out branch.
func (r *Repo) Branch() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", cwerrors.NewPreconditionError("git", "HEAD is detached")
	}
	return ref.Name().Short(), nil
}

// RemoteURL returns the first URL of the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	if name == "" {
		name = DefaultRemote
	}
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", name)
	}
	return urls[0], nil
}

// PushURL returns the URL a token authenticated push to the named remote goes
// to. HTTP(S) and local URLs are used as they are; GitHub SSH URLs become the
// HTTPS URL of the same repository. Any other SSH or git URL is a
// precondition error since a token cannot authenticate it.
func (r *Repo) PushURL(name string) (string, error) {
	if name == "" {
		name = DefaultRemote
	}
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", name)
	}
	// go-git pushes to the last url of a remote
	raw := urls[len(urls)-1]

	ep, err := transport.NewEndpoint(raw)
	if err != nil {
		return "", cwerrors.Wrapf(cwerrors.ErrConfig, "invalid url %q for remote %s", raw, name)
	}
	switch ep.Protocol {
	case "http", "https", "file":
		return raw, nil
	case "ssh":
		if owner, repo, err := github.ParseRepositoryURL(raw); err == nil {
			return github.HTMLURL(owner, repo) + ".git", nil
		}
	}
	return "", cwerrors.Wrapf(cwerrors.ErrPrecondition,
		"remote %s uses %s (%s), token auth needs an https url", name, ep.Protocol, raw)
}

// Signature returns a signature for automated commits. GIT_AUTHOR_NAME and
// GIT_AUTHOR_EMAIL override the defaults.
func Signature() *object.Signature {
	name := os.Getenv("GIT_AUTHOR_NAME")
	if name == "" {
		name = "commit-wizard-bot"
	}
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if email == "" {
		email = "commit-wizard-bot@users.noreply.github.com"
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// Tag is a release tag resolved to its commit.
type Tag struct {
	Name    string
	Version *semver.Version
	Hash    string
}

// LastRelease returns the highest version tag reachable from HEAD whose name
// matches format (e.g. "v%s"). It returns nil when there is none.
func (r *Repo) LastRelease(format string) (*Tag, error) {
	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	prefix, suffix, _ := strings.Cut(format, "%s")

	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var best *Tag
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			return nil
		}
		v, err := semver.StrictNewVersion(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
		if err != nil {
			return nil
		}
		commit, err := r.tagCommit(ref)
		if err != nil {
			return nil
		}
		if commit.Hash != head.Hash {
			ok, err := commit.IsAncestor(head)
			if err != nil || !ok {
				return nil
			}
		}
		if best == nil || v.GreaterThan(best.Version) {
			best = &Tag{Name: name, Version: v, Hash: commit.Hash.String()}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return best, nil
}

// RawCommit is a commit hash and full message.
type RawCommit struct {
	Hash    string
	Message string
}

// CommitsSince returns the commits reachable from HEAD that are not reachable
// from rev, newest first along first parents. Commits brought in by merges are
// included. An empty rev returns the full history.
func (r *Repo) CommitsSince(rev string) ([]RawCommit, error) {
	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}

	released := map[plumbing.Hash]bool{}
	if rev != "" {
		hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
		}
		stop, err := r.repo.CommitObject(*hash)
		if err != nil {
			return nil, fmt.Errorf("failed to load commit %s: %w", rev, err)
		}
		if released, err = ancestors(stop); err != nil {
			return nil, err
		}
	}

	// released commits are never visited, so walks below them stop there
	iter := object.NewCommitPreorderIter(head, released, nil)
	defer iter.Close()

	var commits []RawCommit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, RawCommit{Hash: c.Hash.String(), Message: c.Message})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return commits, nil
}

// ancestors returns c and every commit reachable from it.
func ancestors(c *object.Commit) (map[plumbing.Hash]bool, error) {
	seen := map[plumbing.Hash]bool{}
	iter := object.NewCommitPreorderIter(c, nil, nil)
	defer iter.Close()
	err := iter.ForEach(func(a *object.Commit) error {
		seen[a.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history of %s: %w", c.Hash, err)
	}
	return seen, nil
}

// Stage adds paths to the index. Missing paths are an error.
func (r *Repo) Stage(paths ...string) error {
	if r.worktree == nil {
		return cwerrors.NewPreconditionError("git", "cannot stage files in a bare repository")
	}
	for _, p := range paths {
		if _, err := r.worktree.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repo) HasStagedChanges() (bool, error) {
	if r.worktree == nil {
		return false, nil
	}
	status, err := r.worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// Commit records the index with message. A nil author is read from the git
// configuration.
func (r *Repo) Commit(message string, author *object.Signature) (string, error) {
	if r.worktree == nil {
		return "", cwerrors.NewPreconditionError("git", "cannot commit in a bare repository")
	}
	hash, err := r.worktree.Commit(message, &git.CommitOptions{Author: author})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// CreateTag creates an annotated tag at HEAD. A tag of the same name that
// already points at HEAD is accepted.
func (r *Repo) CreateTag(name, message string, tagger *object.Signature) error {
	head, err := r.headCommit()
	if err != nil {
		return err
	}

	if ref, err := r.repo.Tag(name); err == nil {
		commit, err := r.tagCommit(ref)
		if err == nil && commit.Hash == head.Hash {
			return nil
		}
		return fmt.Errorf("tag %s already exists on another commit", name)
	}

	_, err = r.repo.CreateTag(name, head.Hash, &git.CreateTagOptions{
		Tagger:  tagger,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

// Push pushes branch and tags to remote with token auth, to the URL PushURL
// returns. Without a token the remote's own URL and transport auth are used.
// An up to date remote is not an error.
func (r *Repo) Push(ctx context.Context, remote, token, branch string, tags ...string) error {
	if remote == "" {
		remote = DefaultRemote
	}
	var specs []config.RefSpec
	if branch != "" {
		ref := plumbing.NewBranchReferenceName(branch)
		specs = append(specs, config.RefSpec(fmt.Sprintf("%s:%s", ref, ref)))
	}
	for _, t := range tags {
		ref := plumbing.NewTagReferenceName(t)
		specs = append(specs, config.RefSpec(fmt.Sprintf("%s:%s", ref, ref)))
	}

	opts := &git.PushOptions{RemoteName: remote, RefSpecs: specs}
	if token != "" {
		url, err := r.PushURL(remote)
		if err != nil {
			return err
		}
		opts.RemoteURL = url
		opts.Auth = &http.BasicAuth{Username: TokenUser, Password: token}
	}

	err := r.repo.PushContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push to %s: %w", remote, err)
	}
	return nil
}

func (r *Repo) headCommit() (*object.Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	c, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	return c, nil
}

// tagCommit resolves lightweight and annotated tags to their commit.
func (r *Repo) tagCommit(ref *plumbing.Reference) (*object.Commit, error) {
	if tag, err := r.repo.TagObject(ref.Hash()); err == nil {
		return tag.Commit()
	}
	return r.repo.CommitObject(ref.Hash())
}
