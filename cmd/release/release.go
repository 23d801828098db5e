// Package release implements the release command, which drives the configured
// publishing targets through one release run.
package release

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alan/commit-wizard/cmd"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	semrel "github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/rules"
	"github.com/alan/commit-wizard/internal/targets"
	"github.com/alan/commit-wizard/internal/vcs"
)

// NewReleaseCmd creates and returns the release command
func NewReleaseCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc) *cobra.Command {
	var (
		dryRun  bool
		channel string
	)

	cobraCmd := &cobra.Command{
		Use:   "release",
		Short: "Analyze commits since the last release and publish the next version",
		Long: `Release reads the commits made since the last version tag, computes the
next semantic version from their headers and runs the configured targets
(release.targets) in order: verify, analyze, notes, prepare and publish.

When no commit warrants a version bump nothing is published and the command
succeeds. With --dry-run the run stops after the notes are generated.

GITHUB_TOKEN (or GH_TOKEN) authenticates the git push and the GitHub API.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runRelease(c.Context(), opts, loadConfig, dryRun, channel)
		},
	}

	cobraCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Compute the next version and notes without publishing")
	cobraCmd.Flags().StringVar(&channel, "channel", "", "Distribution channel of the release (overrides release.channel)")

	cobraCmd.AddCommand(newAddChannelCmd(opts, loadConfig))
	return cobraCmd
}

func newAddChannelCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "add-channel <channel>",
		Short: "Promote the last release to a distribution channel",
		Long: `Add-channel points the channel at the last released version on every
target that supports channels, e.g. the registry tag and the GitHub release
prerelease flag.`,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runAddChannel(c.Context(), opts, loadConfig, args[0])
		},
	}
}

// setup loads the configuration, the repository and the targets of one run
func setup(opts *cmd.Options, loadConfig cmd.LoadConfigFunc) (*semrel.Orchestrator, *semrel.Context, error) {
	cfg, err := loadConfig(opts.Dir)
	if err != nil {
		return nil, nil, err
	}
	opts.Logger.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	repo, err := vcs.Open(opts.Dir)
	if err != nil {
		return nil, nil, err
	}
	rc, err := NewContext(opts, cfg, repo)
	if err != nil {
		return nil, nil, err
	}

	list, err := targets.Build(cfg.Release.Targets, targets.Deps{
		Config:        cfg,
		Repo:          repo,
		Dir:           opts.Dir,
		RepositoryURL: rc.RepositoryURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return semrel.New(list...), rc, nil
}

func runRelease(ctx context.Context, opts *cmd.Options, loadConfig cmd.LoadConfigFunc, dryRun bool, channel string) error {
	orchestrator, rc, err := setup(opts, loadConfig)
	if err != nil {
		return err
	}
	rc.DryRun = dryRun
	if channel != "" {
		rc.NextRelease.Channel = channel
	}

	result, err := orchestrator.Run(ctx, rc)
	if err != nil {
		return err
	}
	displayResult(opts.Out, rc, result)
	return nil
}

func runAddChannel(ctx context.Context, opts *cmd.Options, loadConfig cmd.LoadConfigFunc, channel string) error {
	orchestrator, rc, err := setup(opts, loadConfig)
	if err != nil {
		return err
	}
	if err := Promote(rc, channel); err != nil {
		return err
	}

	pubs, err := orchestrator.AddChannel(ctx, rc)
	if err != nil {
		orchestrator.Fail(ctx, rc, err)
		return err
	}

	fmt.Fprintf(opts.Out, "Added %s to channel %s\n", rc.NextRelease.Tag, channel)
	displayPublications(opts.Out, pubs)
	return nil
}

// Promote makes the last release the release handed to the add-channel hooks
func Promote(rc *semrel.Context, channel string) error {
	if channel == "" {
		return cwerrors.NewPreconditionError("release", "channel must not be empty")
	}
	if rc.LastRelease.Version == nil {
		return cwerrors.NewPreconditionError("release", "there is no release to add to a channel")
	}
	rc.NextRelease = semrel.NextRelease{
		Version: rc.LastRelease.Version,
		Tag:     rc.LastRelease.Tag,
		Channel: channel,
	}
	return nil
}

func displayResult(out io.Writer, rc *semrel.Context, result *semrel.Result) {
	if result.Severity == rules.None {
		if rc.LastRelease.Tag != "" {
			fmt.Fprintf(out, "No release: no commit since %s warrants a version bump\n", rc.LastRelease.Tag)
			return
		}
		fmt.Fprintln(out, "No release: no commit warrants a version bump")
		return
	}

	if result.DryRun {
		fmt.Fprintf(out, "Next release: %s (%s)\n\n", result.Tag, result.Severity)
		fmt.Fprintln(out, result.Notes)
		return
	}

	fmt.Fprintf(out, "Published %s (%s)\n", result.Tag, result.Severity)
	displayPublications(out, result.Publications)
}

func displayPublications(out io.Writer, pubs []semrel.Publication) {
	for _, p := range pubs {
		if p.URL != "" {
			fmt.Fprintf(out, "  %s: %s %s\n", p.Target, p.Name, p.URL)
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", p.Target, p.Name)
	}
}
