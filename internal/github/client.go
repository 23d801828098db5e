// Package github wraps the GitHub API calls made by the release targets:
// repository lookups, releases, git data commits, issues and comments.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
)

// Client wraps the GitHub API client for one repository
type Client struct {
	client *github.Client
	owner  string
	repo   string
	log    zerolog.Logger
}

// Options configure a Client
type Options struct {
	// Token authenticates every request; empty means anonymous.
	Token string
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise or tests.
	BaseURL string
	// Timeout bounds each HTTP request; zero means no timeout.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewClient creates a new GitHub client for owner/repo with token authentication
func NewClient(ctx context.Context, owner, repo string, opts Options) (*Client, error) {
	httpClient := &http.Client{}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	}
	httpClient.Timeout = opts.Timeout

	gh := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, cwerrors.Wrapf(cwerrors.ErrConfig, "invalid GitHub API url %q", opts.BaseURL)
		}
		gh.BaseURL = u
	}

	return &Client{
		client: gh,
		owner:  owner,
		repo:   repo,
		log:    opts.Logger,
	}, nil
}

// NewClientForURL creates a client for the repository a remote URL points at
func NewClientForURL(ctx context.Context, repositoryURL string, opts Options) (*Client, error) {
	owner, repo, err := ParseRepositoryURL(repositoryURL)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, owner, repo, opts)
}

// Owner returns the repository owner
func (c *Client) Owner() string {
	return c.owner
}

// Repo returns the repository name
func (c *Client) Repo() string {
	return c.repo
}

// FullName returns owner/repo
func (c *Client) FullName() string {
	return c.owner + "/" + c.repo
}

// apiError converts a go-github error into a RemoteAPIError carrying the
// response status when there is one.
func apiError(op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return &cwerrors.RemoteAPIError{Service: "github", Op: op, Status: status, Err: err}
}

// isNotFound reports whether resp is a 404
func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

// paginatedList collects every page returned by fetch
func paginatedList[T any](fetch func(page int) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	page := 0
	for {
		items, resp, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		page = resp.NextPage
	}
}

// String returns a human readable identity for logs
func (c *Client) String() string {
	return fmt.Sprintf("github.com/%s", c.FullName())
}
