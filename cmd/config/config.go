// Package config implements the config command for initializing and inspecting commit-wizard configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alan/commit-wizard/cmd"
	"github.com/alan/commit-wizard/internal/github"
	"github.com/alan/commit-wizard/internal/vcs"
)

// ShowFunc renders a configuration for display
type ShowFunc func(cfg *cmd.Config) (string, error)

// NewConfigCmd creates and returns the config command
func NewConfigCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc, saveConfig cmd.SaveConfigFunc, show ShowFunc) *cobra.Command {
	cobraCmd := &cobra.Command{
		Use:   "config",
		Short: "Initialize or inspect the commit-wizard.config.json configuration file",
	}
	cobraCmd.AddCommand(newInitCmd(opts, loadConfig, saveConfig))
	cobraCmd.AddCommand(newShowCmd(opts, loadConfig, show))
	return cobraCmd
}

type initFlags struct {
	repositoryURL string
	branch        string
	ruleSet       string
	maxLineLength int
}

func newInitCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc, saveConfig cmd.SaveConfigFunc) *cobra.Command {
	var flags initFlags

	cobraCmd := &cobra.Command{
		Use:   "init",
		Short: "Create or update commit-wizard.config.json",
		Long: `Init writes commit-wizard.config.json in the project directory.

When run inside a git repository it detects the release repository from the
origin remote and the release branch from the checked out branch. Values given
as flags win over detected ones; an existing file is updated in place.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigWithGitDetection(opts, flags, loadConfig, saveConfig)
		},
	}

	cobraCmd.Flags().StringVarP(&flags.repositoryURL, "repository-url", "r", "", "Release repository URL (auto-detected from git if available)")
	cobraCmd.Flags().StringVarP(&flags.branch, "branch", "b", "", "Release branch (auto-detected from git if available, defaults to 'main')")
	cobraCmd.Flags().StringVar(&flags.ruleSet, "rule-set", "", "Built-in release rule set (default, extended)")
	cobraCmd.Flags().IntVar(&flags.maxLineLength, "max-line-length", 0, "Maximum header length")
	return cobraCmd
}

func newShowCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc, show ShowFunc) *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Print the effective configuration as YAML",
		Long:         `Show prints the configuration after defaults and COMMIT_WIZARD_* environment overrides are applied.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.Dir)
			if err != nil {
				return err
			}
			out, err := show(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(opts.Out, out)
			return nil
		},
	}
}

// runConfigWithGitDetection fills the values missing from the flags from git and saves the result
func runConfigWithGitDetection(opts *cmd.Options, flags initFlags, loadConfig cmd.LoadConfigFunc, saveConfig cmd.SaveConfigFunc) error {
	if flags.repositoryURL == "" || flags.branch == "" {
		if info, err := detectGitRepoInfo(opts.Dir); err == nil {
			logDetected(opts.Logger, info, &flags)
		} else {
			opts.Logger.Debug().Err(err).Msg("git detection skipped")
		}
	}

	configFile := filepath.Join(opts.Dir, cmd.ConfigFileName)
	config, isUpdate, err := loadOrCreateConfig(opts.Dir, configFile, loadConfig)
	if err != nil {
		return err
	}
	updateConfigWithProvidedValues(config, flags)
	if err := config.Validate(); err != nil {
		return err
	}

	if err := saveConfig(configFile, config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	displayConfigSuccess(opts.Out, configFile, config, isUpdate)
	return nil
}

func logDetected(logger zerolog.Logger, info *GitRepoInfo, flags *initFlags) {
	if flags.repositoryURL == "" && info.RepositoryURL != "" {
		flags.repositoryURL = info.RepositoryURL
		logger.Info().Str("owner", info.Owner).Str("repo", info.Repo).Msg("Auto-detected repository")
	}
	if flags.branch == "" && info.Branch != "" {
		flags.branch = info.Branch
		logger.Info().Str("branch", info.Branch).Msg("Auto-detected release branch")
	}
}

// displayConfigSuccess shows the configuration success message
func displayConfigSuccess(out io.Writer, configFile string, config *cmd.Config, isUpdate bool) {
	action := "initialized"
	if isUpdate {
		action = "updated"
	}
	repositoryURL := config.Release.RepositoryURL
	if repositoryURL == "" {
		repositoryURL = "(origin remote)"
	}
	fmt.Fprintf(out, "Successfully %s %s with:\n", action, configFile)
	fmt.Fprintf(out, "  Repository: %s\n", repositoryURL)
	fmt.Fprintf(out, "  Release Branch: %s\n", config.Release.Branch)
	fmt.Fprintf(out, "  Rule Set: %s\n", config.Release.RuleSet)
	fmt.Fprintf(out, "  Max Line Length: %d\n", config.MaxLineLength)
}

// loadOrCreateConfig loads the existing config, or the defaults when there is no file
func loadOrCreateConfig(dir, configFile string, loadConfig cmd.LoadConfigFunc) (*cmd.Config, bool, error) {
	_, statErr := os.Stat(configFile)
	config, err := loadConfig(dir)
	if err != nil {
		return nil, false, err
	}
	return config, statErr == nil, nil
}

// updateConfigWithProvidedValues updates config with any non-empty provided values
func updateConfigWithProvidedValues(config *cmd.Config, flags initFlags) {
	if flags.repositoryURL != "" {
		config.Release.RepositoryURL = flags.repositoryURL
	}
	if flags.branch != "" {
		config.Release.Branch = flags.branch
	}
	if flags.ruleSet != "" {
		config.Release.RuleSet = flags.ruleSet
	}
	if flags.maxLineLength != 0 {
		config.MaxLineLength = flags.maxLineLength
	}
}

// GitRepoInfo holds detected git repository information
type GitRepoInfo struct {
	RepositoryURL string
	Owner         string
	Repo          string
	Branch        string
}

// detectGitRepoInfo reads the origin remote and the current branch of the repository at dir.
// A remote that is not on GitHub is ignored.
func detectGitRepoInfo(dir string) (*GitRepoInfo, error) {
	repo, err := vcs.Open(dir)
	if err != nil {
		return nil, err
	}

	info := &GitRepoInfo{}
	if url, err := repo.RemoteURL(vcs.DefaultRemote); err == nil {
		if owner, name, err := github.ParseRepositoryURL(url); err == nil {
			info.RepositoryURL = url
			info.Owner = owner
			info.Repo = name
		}
	}
	if branch, err := repo.Branch(); err == nil {
		info.Branch = branch
	}
	return info, nil
}
