// Package lint implements the lint command, which validates commit headers.
// It is usable as a commit-msg hook with --file.
package lint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alan/commit-wizard/cmd"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/header"
	"github.com/alan/commit-wizard/internal/vcs"
)

// scissors marks the start of the diff git appends in verbose commits
const scissors = "# ------------------------ >8 ------------------------"

// NewLintCmd creates and returns the lint command
func NewLintCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc) *cobra.Command {
	var (
		file string
		from string
	)

	cobraCmd := &cobra.Command{
		Use:   "lint [message]",
		Short: "Validate a commit header",
		Long: `Lint checks that a commit header follows type(scope)!: subject and fits
maxLineLength. The message is read from the argument, from --file (e.g.
.git/COMMIT_EDITMSG in a commit-msg hook) or from stdin. Lines starting with
# are ignored.

With --from every commit made since the revision is checked.`,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.Dir)
			if err != nil {
				return err
			}
			if from != "" {
				return lintHistory(opts, from, cfg.MaxLineLength)
			}
			raw, err := readMessage(opts.In, file, args)
			if err != nil {
				return err
			}
			return Message(raw, cfg.MaxLineLength)
		},
	}

	cobraCmd.Flags().StringVarP(&file, "file", "f", "", "Read the message from a file")
	cobraCmd.Flags().StringVar(&from, "from", "", "Lint every commit since this revision")
	cobraCmd.MarkFlagsMutuallyExclusive("file", "from")
	return cobraCmd
}

// Message validates the header of a raw commit message after dropping
// comment lines
func Message(raw string, maxLen int) error {
	return header.Validate(StripComments(raw), maxLen)
}

// StripComments removes # lines and everything after the scissors line, then
// trims surrounding blank lines
func StripComments(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == scissors {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func readMessage(in io.Reader, file string, args []string) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", cwerrors.Wrap(cwerrors.ErrConfig, "pass either a message or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", &cwerrors.IOError{Op: "read", Path: file, Err: err}
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(in)
		if err != nil {
			return "", &cwerrors.IOError{Op: "read", Path: "stdin", Err: err}
		}
		return string(data), nil
	}
}

// lintHistory validates every commit since rev and reports each failure
func lintHistory(opts *cmd.Options, rev string, maxLen int) error {
	repo, err := vcs.Open(opts.Dir)
	if err != nil {
		return err
	}
	commits, err := repo.CommitsSince(rev)
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range commits {
		if err := header.Validate(c.Message, maxLen); err != nil {
			errs = append(errs, cwerrors.Wrapf(err, "commit %s", c.Hash[:7]))
		}
	}
	opts.Logger.Debug().Int("commits", len(commits)).Int("invalid", len(errs)).Msg("history linted")

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	fmt.Fprintf(opts.Out, "%d commits since %s are valid\n", len(commits), rev)
	return nil
}
