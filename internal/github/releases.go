package github

import (
	"context"

	"github.com/google/go-github/v57/github"
)

func toRelease(r *github.RepositoryRelease) *Release {
	return &Release{
		ID:         r.GetID(),
		TagName:    r.GetTagName(),
		Name:       r.GetName(),
		Body:       r.GetBody(),
		URL:        r.GetHTMLURL(),
		Prerelease: r.GetPrerelease(),
	}
}

// GetReleaseByTag returns the release for tag, or nil when none exists
func (c *Client) GetReleaseByTag(ctx context.Context, tag string) (*Release, error) {
	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Str("tag", tag).Msg("GitHub API: Getting release by tag")
	r, resp, err := c.client.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if isNotFound(resp) {
		return nil, nil
	}
	if err != nil {
		return nil, apiError("get release "+tag, resp, err)
	}
	return toRelease(r), nil
}

// CreateRelease creates a release for an existing or new tag
func (c *Client) CreateRelease(ctx context.Context, in ReleaseInput) (*Release, error) {
	release := &github.RepositoryRelease{
		TagName:    github.String(in.TagName),
		Name:       github.String(in.Name),
		Body:       github.String(in.Body),
		Prerelease: github.Bool(in.Prerelease),
	}
	if in.TargetCommitish != "" {
		release.TargetCommitish = github.String(in.TargetCommitish)
	}

	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Str("tag", in.TagName).Msg("GitHub API: Creating release")
	r, resp, err := c.client.Repositories.CreateRelease(ctx, c.owner, c.repo, release)
	if err != nil {
		return nil, apiError("create release "+in.TagName, resp, err)
	}
	return toRelease(r), nil
}

// SetPrerelease updates the prerelease flag of a release
func (c *Client) SetPrerelease(ctx context.Context, id int64, prerelease bool) (*Release, error) {
	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Int64("release_id", id).Bool("prerelease", prerelease).
		Msg("GitHub API: Editing release")
	r, resp, err := c.client.Repositories.EditRelease(ctx, c.owner, c.repo, id, &github.RepositoryRelease{
		Prerelease: github.Bool(prerelease),
	})
	if err != nil {
		return nil, apiError("edit release", resp, err)
	}
	return toRelease(r), nil
}
