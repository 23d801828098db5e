package github

import (
	"context"

	"github.com/google/go-github/v57/github"
)

func toComment(comment *github.IssueComment) *Comment {
	return &Comment{
		ID:        comment.GetID(),
		Body:      comment.GetBody(),
		User:      comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
		UpdatedAt: comment.GetUpdatedAt().Time,
	}
}

// GetIssueComments retrieves all comments for a specific issue
func (c *Client) GetIssueComments(ctx context.Context, issueNumber int) ([]Comment, error) {
	comments, err := paginatedList(func(page int) ([]*github.IssueComment, *github.Response, error) {
		c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Int("issue", issueNumber).Int("page", page).
			Msg("GitHub API: Listing issue comments")
		return c.client.Issues.ListComments(ctx, c.owner, c.repo, issueNumber, &github.IssueListCommentsOptions{
			ListOptions: github.ListOptions{PerPage: 100, Page: page},
		})
	})
	if err != nil {
		return nil, apiError("list issue comments", nil, err)
	}

	allComments := make([]Comment, 0, len(comments))
	for _, comment := range comments {
		allComments = append(allComments, *toComment(comment))
	}
	return allComments, nil
}

// CreateIssueComment creates a new comment on an issue
func (c *Client) CreateIssueComment(ctx context.Context, issueNumber int, body string) (*Comment, error) {
	commentInput := &github.IssueComment{
		Body: github.String(body),
	}

	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Int("issue", issueNumber).Msg("GitHub API: Creating issue comment")
	comment, resp, err := c.client.Issues.CreateComment(ctx, c.owner, c.repo, issueNumber, commentInput)
	if err != nil {
		return nil, apiError("create comment", resp, err)
	}

	return toComment(comment), nil
}
