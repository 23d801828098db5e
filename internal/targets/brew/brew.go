// Package brew updates a Homebrew formula with the tarball of a new release
// and commits it through the GitHub git data API.
package brew

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alan/commit-wizard/internal/digest"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/github"
	"github.com/alan/commit-wizard/internal/release"
)

// Name is the target name used in configuration.
const Name = "brew"

// DefaultDownloadURL serves tag tarballs of GitHub repositories.
const DefaultDownloadURL = "https://codeload.github.com"

var (
	urlAnchor    = regexp.MustCompile(`url "[^"]*"`)
	sha256Anchor = regexp.MustCompile(`sha256 "[^"]*"`)
)

// Committer writes files to a branch of a hosted repository.
type Committer interface {
	CommitFiles(ctx context.Context, branch, message string, files ...github.FileChange) (string, error)
}

// CommitterFactory connects to the repository at repositoryURL. API calls are
// logged to log.
type CommitterFactory func(ctx context.Context, repositoryURL, token string, log zerolog.Logger) (Committer, error)

// Options configure the brew target.
type Options struct {
	// Formula is the formula path, relative to Dir locally and to the tap root
	// remotely. Defaults to <repo>.rb.
	Formula string
	// Tap is the repository the formula is committed to; defaults to the
	// release repository.
	Tap string
	// Branch of the tap; defaults to the release branch.
	Branch string
	// Artifact is a local archive digested instead of the tag tarball.
	Artifact string
	// Dir holds the formula file; defaults to the working directory.
	Dir         string
	DownloadURL string
	HTTPClient  *http.Client
	Committers  CommitterFactory
	// Disabled turns every hook off, see Enabled.
	Disabled bool
}

// Target implements verifyConditions, prepare and publish.
type Target struct {
	release.Base
	opts    Options
	formula string
}

// New creates a brew target.
func New(opts Options) *Target {
	if opts.DownloadURL == "" {
		opts.DownloadURL = DefaultDownloadURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Committers == nil {
		opts.Committers = GitHubCommitters(github.Options{Timeout: opts.HTTPClient.Timeout})
	}
	return &Target{opts: opts, formula: opts.Formula}
}

// GitHubCommitters commits through the GitHub API with the given client
// options; the token is set per call.
func GitHubCommitters(opts github.Options) CommitterFactory {
	return func(ctx context.Context, repositoryURL, token string, log zerolog.Logger) (Committer, error) {
		opts.Token = token
		opts.Logger = log
		client, err := github.NewClientForURL(ctx, repositoryURL, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Name returns "brew".
func (t *Target) Name() string { return Name }

// Capabilities is empty when the target is disabled.
func (t *Target) Capabilities() release.Capability {
	if t.opts.Disabled {
		return 0
	}
	return release.CanVerifyConditions | release.CanPrepare | release.CanPublish
}

// Enabled reports whether a project has a formula to maintain: one is
// configured, or the default <repo>.rb exists in dir.
func Enabled(dir, formula, repositoryURL string) bool {
	if formula != "" {
		return true
	}
	def, err := FormulaFile("", repositoryURL)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, def))
	return err == nil
}

// FormulaFile returns the formula path for a repository URL: the configured
// formula or <repo>.rb.
func FormulaFile(formula, repositoryURL string) (string, error) {
	if formula != "" {
		return formula, nil
	}
	_, repo, err := github.ParseRepositoryURL(repositoryURL)
	if err != nil {
		return "", err
	}
	return repo + ".rb", nil
}

// TarballURL is the tag tarball GitHub serves for owner/repo.
func TarballURL(base, owner, repo, tag string) string {
	return fmt.Sprintf("%s/%s/%s/tar.gz/refs/tags/%s", strings.TrimSuffix(base, "/"), owner, repo, tag)
}

// Patch replaces the first url and sha256 anchors of a formula.
func Patch(formula, url, sum string) (string, error) {
	out, ok := replaceFirst(urlAnchor, formula, fmt.Sprintf("url %q", url))
	if !ok {
		return "", cwerrors.NewPreconditionError(Name, `formula has no url "..." line`)
	}
	out, ok = replaceFirst(sha256Anchor, out, fmt.Sprintf("sha256 %q", sum))
	if !ok {
		return "", cwerrors.NewPreconditionError(Name, `formula has no sha256 "..." line`)
	}
	return out, nil
}

func replaceFirst(re *regexp.Regexp, s, repl string) (string, bool) {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s, false
	}
	return s[:loc[0]] + repl + s[loc[1]:], true
}

// VerifyConditions checks the token, the repository URL and the formula file.
func (t *Target) VerifyConditions(_ context.Context, rc *release.Context) error {
	if rc.Token() == "" {
		return cwerrors.NewPreconditionError(Name, "GITHUB_TOKEN or GH_TOKEN is required to commit the formula")
	}
	if _, _, err := github.ParseRepositoryURL(rc.RepositoryURL); err != nil {
		return cwerrors.NewPreconditionError(Name, err.Error())
	}
	if t.opts.Tap != "" {
		if _, _, err := github.ParseRepositoryURL(t.opts.Tap); err != nil {
			return cwerrors.NewPreconditionError(Name, err.Error())
		}
	}

	formula, err := FormulaFile(t.opts.Formula, rc.RepositoryURL)
	if err != nil {
		return cwerrors.NewPreconditionError(Name, err.Error())
	}
	if _, err := os.Stat(t.localPath(formula)); err != nil {
		return cwerrors.NewPreconditionError(Name, fmt.Sprintf("formula file %s: %v", formula, err))
	}
	t.formula = formula
	return nil
}

// Prepare digests the release archive and rewrites the formula's url and
// sha256 lines.
func (t *Target) Prepare(ctx context.Context, rc *release.Context) error {
	log := rc.LoggerFor(release.PhasePrepare, Name)
	owner, repo, err := github.ParseRepositoryURL(rc.RepositoryURL)
	if err != nil {
		return err
	}
	formula, err := t.formulaFile(rc)
	if err != nil {
		return err
	}

	url := TarballURL(t.opts.DownloadURL, owner, repo, rc.NextRelease.Tag)
	var sum string
	if t.opts.Artifact != "" {
		log.Debug().Str("artifact", t.opts.Artifact).Msg("calculating SHA256 of local artifact")
		sum, err = digest.File(t.opts.Artifact)
	} else {
		log.Debug().Str("url", url).Msg("calculating SHA256 of release tarball")
		sum, err = digest.Fetch(ctx, t.opts.HTTPClient, url)
	}
	if err != nil {
		return err
	}

	path := t.localPath(formula)
	data, err := os.ReadFile(path) //nolint:gosec // formula path comes from configuration
	if err != nil {
		return &cwerrors.IOError{Op: "read", Path: path, Err: err}
	}
	patched, err := Patch(string(data), url, sum)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil { //nolint:gosec // formula is committed
		return &cwerrors.IOError{Op: "write", Path: path, Err: err}
	}

	log.Info().Str("formula", formula).Str("url", url).Str("sha256", sum).Msg("formula updated")
	return nil
}

// Publish commits the formula to the tap branch.
func (t *Target) Publish(ctx context.Context, rc *release.Context) (*release.Publication, error) {
	log := rc.LoggerFor(release.PhasePublish, Name)
	formula, err := t.formulaFile(rc)
	if err != nil {
		return nil, err
	}

	tap := t.opts.Tap
	if tap == "" {
		tap = rc.RepositoryURL
	}
	owner, repo, err := github.ParseRepositoryURL(tap)
	if err != nil {
		return nil, err
	}
	branch := t.opts.Branch
	if branch == "" {
		branch = rc.Branch
	}

	path := t.localPath(formula)
	data, err := os.ReadFile(path) //nolint:gosec // formula path comes from configuration
	if err != nil {
		return nil, &cwerrors.IOError{Op: "read", Path: path, Err: err}
	}

	committer, err := t.opts.Committers(ctx, tap, rc.Token(), log)
	if err != nil {
		return nil, err
	}

	log.Info().Str("formula", formula).Str("branch", branch).Msg("committing updated formula file")
	message := fmt.Sprintf("chore(release): %s", rc.NextRelease.Version)
	sha, err := committer.CommitFiles(ctx, branch, message, github.FileChange{
		Path:    filepath.ToSlash(formula),
		Content: data,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("commit", sha).Str("branch", branch).Msg("formula committed")

	return &release.Publication{
		Name: formula,
		URL:  fmt.Sprintf("%s/commit/%s", github.HTMLURL(owner, repo), sha),
	}, nil
}

func (t *Target) formulaFile(rc *release.Context) (string, error) {
	if t.formula != "" {
		return t.formula, nil
	}
	formula, err := FormulaFile(t.opts.Formula, rc.RepositoryURL)
	if err != nil {
		return "", err
	}
	t.formula = formula
	return formula, nil
}

func (t *Target) localPath(formula string) string {
	if t.opts.Dir == "" || filepath.IsAbs(formula) {
		return formula
	}
	return filepath.Join(t.opts.Dir, formula)
}
