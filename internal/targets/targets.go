// Package targets builds the publishing targets named in the configuration.
package targets

import (
	"net/http"
	"slices"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/alan/commit-wizard/cmd"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/github"
	"github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/targets/brew"
	"github.com/alan/commit-wizard/internal/targets/commitanalyzer"
	"github.com/alan/commit-wizard/internal/targets/gitrepo"
	"github.com/alan/commit-wizard/internal/targets/hosting"
	"github.com/alan/commit-wizard/internal/targets/registry"
	"github.com/alan/commit-wizard/internal/targets/releasenotes"
	"github.com/alan/commit-wizard/internal/vcs"
)

// Deps are the collaborators targets are built with.
type Deps struct {
	Config *cmd.Config
	// Repo is the local repository; nil when there is none.
	Repo *vcs.Repo
	// Dir is the project directory.
	Dir string
	// RepositoryURL is the resolved release repository.
	RepositoryURL string
	// Signer overrides the author of release commits and tags.
	Signer func() *object.Signature
}

type builder func(Deps) (release.Target, error)

var builders = map[string]builder{
	commitanalyzer.Name: buildCommitAnalyzer,
	releasenotes.Name:   buildReleaseNotes,
	gitrepo.Name:        buildGit,
	registry.Name:       buildRegistry,
	brew.Name:           buildBrew,
	hosting.Name:        buildHosting,
}

// Names lists the known target names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build creates the named targets in order. An unknown name is an error.
func Build(names []string, deps Deps) ([]release.Target, error) {
	out := make([]release.Target, 0, len(names))
	for _, name := range names {
		build, ok := builders[name]
		if !ok {
			return nil, cwerrors.Wrapf(cwerrors.ErrUnknownTarget, "%q (known: %v)", name, Names())
		}
		t, err := build(deps)
		if err != nil {
			return nil, cwerrors.Wrapf(err, "target %s", name)
		}
		out = append(out, t)
	}
	return out, nil
}

func httpClient(deps Deps) *http.Client {
	return &http.Client{Timeout: deps.Config.Timeout()}
}

func buildCommitAnalyzer(deps Deps) (release.Target, error) {
	table, err := deps.Config.RuleTable()
	if err != nil {
		return nil, err
	}
	return commitanalyzer.New(table), nil
}

func buildReleaseNotes(Deps) (release.Target, error) {
	return releasenotes.New(releasenotes.Options{}), nil
}

func buildGit(deps Deps) (release.Target, error) {
	opts := gitrepo.Options{
		Branch:  deps.Config.Release.Branch,
		Remote:  deps.Config.Git.Remote,
		Assets:  deps.Config.Git.Assets,
		Message: deps.Config.Git.Message,
		Signer:  deps.Signer,
	}
	if deps.Repo == nil {
		return gitrepo.New(nil, opts), nil
	}
	return gitrepo.New(deps.Repo, opts), nil
}

func buildRegistry(deps Deps) (release.Target, error) {
	return registry.New(registry.Options{
		Reference:  deps.Config.Registry.Reference,
		Files:      deps.Config.Registry.Files,
		PlainHTTP:  deps.Config.Registry.PlainHTTP,
		HTTPClient: httpClient(deps),
	}), nil
}

func buildBrew(deps Deps) (release.Target, error) {
	cfg := deps.Config.Brew
	client := httpClient(deps)
	return brew.New(brew.Options{
		Formula:    cfg.Formula,
		Tap:        cfg.Tap,
		Branch:     cfg.Branch,
		Artifact:   cfg.Artifact,
		Dir:        deps.Dir,
		HTTPClient: client,
		Committers: brew.GitHubCommitters(github.Options{BaseURL: deps.Config.GitHub.APIURL, Timeout: client.Timeout}),
		Disabled:   !brew.Enabled(deps.Dir, cfg.Formula, deps.RepositoryURL),
	}), nil
}

func buildHosting(deps Deps) (release.Target, error) {
	return hosting.New(hosting.Options{
		FailIssue:  deps.Config.GitHub.FailIssue,
		FailLabels: deps.Config.GitHub.FailLabels,
		APIURL:     deps.Config.GitHub.APIURL,
		Timeout:    deps.Config.Timeout(),
	}), nil
}
