package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
)

// SearchIssuesByTitle searches for open issues whose title contains the specified text
func (c *Client) SearchIssuesByTitle(ctx context.Context, title string) ([]Issue, error) {
	query := fmt.Sprintf("repo:%s/%s is:issue is:open %q in:title", c.owner, c.repo, title)

	opts := &github.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var allIssues []Issue

	for {
		c.log.Debug().Str("query", query).Int("page", opts.Page).Msg("GitHub API: Searching issues")
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, apiError("search issues", resp, err)
		}

		for _, issue := range result.Issues {
			// Skip pull requests
			if issue.IsPullRequest() {
				continue
			}

			allIssues = append(allIssues, Issue{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				Body:   issue.GetBody(),
				URL:    issue.GetHTMLURL(),
				State:  issue.GetState(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allIssues, nil
}

// CreateIssue opens a new issue
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Str("title", title).Msg("GitHub API: Creating issue")
	issue, resp, err := c.client.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return nil, apiError("create issue", resp, err)
	}

	return &Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
		State:  issue.GetState(),
	}, nil
}
