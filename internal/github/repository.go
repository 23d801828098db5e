package github

import (
	"context"
	"fmt"
	"regexp"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
)

var (
	// git@github.com:owner/repo.git
	sshRemote = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`)
	// ssh://git@github.com/owner/repo.git
	sshURLRemote = regexp.MustCompile(`^ssh://git@github\.com(?::\d+)?/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	// https://github.com/owner/repo.git, optionally with credentials or a git+ prefix
	httpsRemote = regexp.MustCompile(`^(?:git\+)?https?://(?:[^@/]+@)?github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// ParseRepositoryURL extracts owner and repo from the GitHub URL formats git
// remotes use.
func ParseRepositoryURL(remoteURL string) (string, string, error) {
	for _, re := range []*regexp.Regexp{sshRemote, sshURLRemote, httpsRemote} {
		if matches := re.FindStringSubmatch(remoteURL); len(matches) == 3 {
			return matches[1], matches[2], nil
		}
	}
	return "", "", cwerrors.Wrapf(cwerrors.ErrConfig, "unable to parse GitHub remote URL: %s", remoteURL)
}

// HTMLURL returns the browser URL of owner/repo
func HTMLURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// GetRepository fetches the repository metadata
func (c *Client) GetRepository(ctx context.Context) (*Repository, error) {
	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Msg("GitHub API: Getting repository")
	r, resp, err := c.client.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return nil, apiError("get repository "+c.FullName(), resp, err)
	}

	return &Repository{
		FullName:      r.GetFullName(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
		Private:       r.GetPrivate(),
	}, nil
}
