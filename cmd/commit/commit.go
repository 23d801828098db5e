// Package commit implements the commit command, which walks the contributor
// through writing a conventional header and commits the staged changes with it.
package commit

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	"github.com/alan/commit-wizard/cmd"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/header"
	"github.com/alan/commit-wizard/internal/prompt"
	"github.com/alan/commit-wizard/internal/vcs"
)

// NewCommitCmd creates and returns the commit command
func NewCommitCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc) *cobra.Command {
	var (
		dryRun  bool
		message string
	)

	cobraCmd := &cobra.Command{
		Use:   "commit",
		Short: "Write a conventional commit header interactively and commit",
		Long: `Commit asks for the change type, an optional scope and a subject, shows
the resulting header and commits the staged changes with it once confirmed.

The subject counter turns red when the header would exceed maxLineLength.
Use --message to skip the prompt and commit a header that passes lint.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.Dir)
			if err != nil {
				return err
			}

			var h header.Header
			if message != "" {
				h, err = header.Parse(message, cfg.MaxLineLength)
			} else {
				h, err = prompt.Run(c.Context(), cfg.MaxLineLength)
			}
			if errors.Is(err, cwerrors.ErrAborted) {
				fmt.Fprintln(opts.Out, prompt.AbortedMessage)
				return nil
			}
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintln(opts.Out, header.Format(h))
				return nil
			}
			repo, err := vcs.Open(opts.Dir)
			if err != nil {
				return err
			}
			return Record(opts.Out, repo, h, nil)
		},
	}

	cobraCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the header instead of committing")
	cobraCmd.Flags().StringVarP(&message, "message", "m", "", "Commit this header without prompting")
	return cobraCmd
}

// Record commits the staged changes with h as the message. A nil author is
// read from the git configuration.
func Record(out io.Writer, repo *vcs.Repo, h header.Header, author *object.Signature) error {
	staged, err := repo.HasStagedChanges()
	if err != nil {
		return err
	}
	if !staged {
		return cwerrors.NewPreconditionError("git", "nothing to commit, stage changes with git add first")
	}

	message := header.Format(h)
	hash, err := repo.Commit(message, author)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[%s] %s\n", hash[:7], message)
	return nil
}
