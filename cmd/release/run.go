package release

import (
	"github.com/alan/commit-wizard/cmd"
	"github.com/alan/commit-wizard/internal/analyzer"
	"github.com/alan/commit-wizard/internal/github"
	semrel "github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/vcs"
)

// RepositoryURL returns the configured release repository, falling back to the
// URL of the configured remote. It is empty when neither is available.
func RepositoryURL(cfg *cmd.Config, repo *vcs.Repo) string {
	if cfg.Release.RepositoryURL != "" {
		return cfg.Release.RepositoryURL
	}
	if repo == nil {
		return ""
	}
	url, err := repo.RemoteURL(cfg.Git.Remote)
	if err != nil {
		return ""
	}
	return url
}

// NewContext builds the run context for repo: the last release matching the
// tag format and every commit made since.
func NewContext(opts *cmd.Options, cfg *cmd.Config, repo *vcs.Repo) (*semrel.Context, error) {
	rc := semrel.NewContext(opts.Logger)
	rc.Branch = cfg.Release.Branch
	rc.TagFormat = cfg.Release.TagFormat
	rc.RepositoryURL = RepositoryURL(cfg, repo)
	rc.NextRelease.Channel = cfg.Release.Channel

	last, err := repo.LastRelease(cfg.Release.TagFormat)
	if err != nil {
		return nil, err
	}
	since := ""
	if last != nil {
		rc.LastRelease = semrel.LastRelease{Version: last.Version, Tag: last.Name, Hash: last.Hash}
		since = last.Hash
	}

	raw, err := repo.CommitsSince(since)
	if err != nil {
		return nil, err
	}
	pairs := make([][2]string, 0, len(raw))
	for _, c := range raw {
		pairs = append(pairs, [2]string{c.Hash, c.Message})
	}
	rc.Commits = analyzer.NewCommits(cfg.MaxLineLength, pairs...)

	log := rc.Logger.Debug().Int("commits", len(rc.Commits)).Str("branch", rc.Branch)
	if last != nil {
		log = log.Str("last_release", last.Name)
	}
	if owner, name, err := github.ParseRepositoryURL(rc.RepositoryURL); err == nil {
		log = log.Str("repository", owner+"/"+name)
	}
	log.Msg("release context ready")
	return rc, nil
}
