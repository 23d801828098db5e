// Package hosting publishes GitHub releases and reports failed runs as
// issues.
package hosting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/github"
	"github.com/alan/commit-wizard/internal/release"
)

// Name is the target name used in configuration.
const Name = "github"

// FailIssueTitle is the title of the issue tracking failed releases.
const FailIssueTitle = "The automated release is failing 🚨"

// Client is the subset of *github.Client the target uses.
type Client interface {
	GetRepository(ctx context.Context) (*github.Repository, error)
	GetReleaseByTag(ctx context.Context, tag string) (*github.Release, error)
	CreateRelease(ctx context.Context, in github.ReleaseInput) (*github.Release, error)
	SetPrerelease(ctx context.Context, id int64, prerelease bool) (*github.Release, error)
	SearchIssuesByTitle(ctx context.Context, title string) ([]github.Issue, error)
	CreateIssue(ctx context.Context, title, body string, labels []string) (*github.Issue, error)
	GetIssueComments(ctx context.Context, issueNumber int) ([]github.Comment, error)
	CreateIssueComment(ctx context.Context, issueNumber int, body string) (*github.Comment, error)
}

var _ Client = (*github.Client)(nil)

// ClientFactory connects to the repository at repositoryURL. API calls are
// logged to log.
type ClientFactory func(ctx context.Context, repositoryURL, token string, log zerolog.Logger) (Client, error)

// Options configure the GitHub target.
type Options struct {
	// FailIssue opens or comments on an issue when a run fails.
	FailIssue  bool
	FailLabels []string
	// APIURL overrides the API endpoint of the default client factory.
	APIURL  string
	Timeout time.Duration
	Clients ClientFactory
}

// Target implements verify, publish, addChannel, success and fail.
type Target struct {
	release.Base
	opts   Options
	client Client
}

// New creates a GitHub target.
func New(opts Options) *Target {
	if opts.Clients == nil {
		opts.Clients = GitHubClients(github.Options{BaseURL: opts.APIURL, Timeout: opts.Timeout})
	}
	return &Target{opts: opts}
}

// GitHubClients creates API clients with the given options; the token is set
// per call.
func GitHubClients(opts github.Options) ClientFactory {
	return func(ctx context.Context, repositoryURL, token string, log zerolog.Logger) (Client, error) {
		opts.Token = token
		opts.Logger = log
		client, err := github.NewClientForURL(ctx, repositoryURL, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Name returns "github".
func (t *Target) Name() string { return Name }

// Capabilities reports every hook but prepare.
func (t *Target) Capabilities() release.Capability {
	return release.CanVerifyConditions | release.CanPublish | release.CanAddChannel |
		release.CanSuccess | release.CanFail
}

// connect creates the client on first use; later phases reuse it.
func (t *Target) connect(ctx context.Context, rc *release.Context, log zerolog.Logger) (Client, error) {
	if t.client != nil {
		return t.client, nil
	}
	token := rc.Token()
	if token == "" {
		return nil, cwerrors.NewPreconditionError(Name, "GITHUB_TOKEN or GH_TOKEN is required")
	}
	client, err := t.opts.Clients(ctx, rc.RepositoryURL, token, log)
	if err != nil {
		return nil, cwerrors.NewPreconditionError(Name, err.Error())
	}
	t.client = client
	return client, nil
}

// VerifyConditions checks the token and that the repository is reachable.
func (t *Target) VerifyConditions(ctx context.Context, rc *release.Context) error {
	log := rc.LoggerFor(release.PhaseVerifyConditions, Name)
	client, err := t.connect(ctx, rc, log)
	if err != nil {
		return err
	}
	repo, err := client.GetRepository(ctx)
	if err != nil {
		return err
	}
	log.Debug().
		Str("repository", repo.FullName).
		Str("default_branch", repo.DefaultBranch).
		Msg("repository reachable")
	return nil
}

// Publish creates the release for the tag. A release that already exists is
// returned unchanged.
func (t *Target) Publish(ctx context.Context, rc *release.Context) (*release.Publication, error) {
	log := rc.LoggerFor(release.PhasePublish, Name)
	client, err := t.connect(ctx, rc, log)
	if err != nil {
		return nil, err
	}
	tag := rc.NextRelease.Tag

	existing, err := client.GetReleaseByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info().Str("tag", tag).Str("url", existing.URL).Msg("release already exists")
		return &release.Publication{Name: tag, URL: existing.URL}, nil
	}

	created, err := client.CreateRelease(ctx, github.ReleaseInput{
		TagName:         tag,
		Name:            tag,
		Body:            rc.NextRelease.Notes,
		TargetCommitish: rc.Branch,
		Prerelease:      rc.NextRelease.Channel != "",
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("tag", tag).Str("url", created.URL).Bool("prerelease", created.Prerelease).Msg("release created")
	return &release.Publication{Name: tag, URL: created.URL}, nil
}

// AddChannel marks the release of the tag as a full release.
func (t *Target) AddChannel(ctx context.Context, rc *release.Context) (*release.Publication, error) {
	log := rc.LoggerFor(release.PhaseAddChannel, Name)
	client, err := t.connect(ctx, rc, log)
	if err != nil {
		return nil, err
	}
	tag := rc.NextRelease.Tag

	existing, err := client.GetReleaseByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, cwerrors.NewPreconditionError(Name, fmt.Sprintf("no release for tag %s", tag))
	}
	if !existing.Prerelease {
		return &release.Publication{Name: tag, URL: existing.URL}, nil
	}

	updated, err := client.SetPrerelease(ctx, existing.ID, false)
	if err != nil {
		return nil, err
	}
	log.Info().Str("tag", tag).Msg("release promoted")
	return &release.Publication{Name: tag, URL: updated.URL}, nil
}

// Success logs the release URLs of the run.
func (t *Target) Success(_ context.Context, rc *release.Context) error {
	log := rc.LoggerFor(release.PhaseSuccess, Name)
	for _, pub := range rc.Releases {
		if pub.Target == Name {
			log.Info().Str("url", pub.URL).Msgf("published release %s", pub.Name)
		}
	}
	return nil
}

// Fail opens an issue describing cause, or comments on the open one. A
// failure already reported by the last comment is not repeated.
func (t *Target) Fail(ctx context.Context, rc *release.Context, cause error) error {
	if !t.opts.FailIssue {
		return nil
	}
	log := rc.LoggerFor(release.PhaseFail, Name)
	client, err := t.connect(ctx, rc, log)
	if err != nil {
		return err
	}

	body := FailureBody(rc.Branch, cause)
	issues, err := client.SearchIssuesByTitle(ctx, FailIssueTitle)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		number := issues[0].Number
		comments, err := client.GetIssueComments(ctx, number)
		if err != nil {
			return err
		}
		if n := len(comments); n > 0 && comments[n-1].Body == body {
			log.Info().Int("issue", number).Msg("failure already reported")
			return nil
		}
		if _, err := client.CreateIssueComment(ctx, number, body); err != nil {
			return err
		}
		log.Info().Int("issue", number).Msg("commented on failure issue")
		return nil
	}

	issue, err := client.CreateIssue(ctx, FailIssueTitle, body, t.opts.FailLabels)
	if err != nil {
		return err
	}
	log.Info().Int("issue", issue.Number).Str("url", issue.URL).Msg("opened failure issue")
	return nil
}

// FailureBody renders the issue text for a failed run.
func FailureBody(branch string, cause error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 🚨 The automated release from the `%s` branch failed. 🚨\n\n", branch)
	b.WriteString("The release will be retried by the next run on this branch once the error below is fixed.\n\n")
	fmt.Fprintf(&b, "```\n%v\n```\n", cause)
	return b.String()
}
