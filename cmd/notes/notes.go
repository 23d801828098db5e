// Package notes implements the notes command, which previews the release notes
// of the commits made since the last release.
package notes

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alan/commit-wizard/cmd"
	releasecmd "github.com/alan/commit-wizard/cmd/release"
	"github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/rules"
	"github.com/alan/commit-wizard/internal/targets"
	"github.com/alan/commit-wizard/internal/targets/commitanalyzer"
	"github.com/alan/commit-wizard/internal/targets/releasenotes"
	"github.com/alan/commit-wizard/internal/vcs"
)

// WordWrap is the width rendered notes are wrapped at
const WordWrap = 80

// NewNotesCmd creates and returns the notes command
func NewNotesCmd(opts *cmd.Options, loadConfig cmd.LoadConfigFunc) *cobra.Command {
	var raw bool

	cobraCmd := &cobra.Command{
		Use:   "notes",
		Short: "Preview the release notes of the unreleased commits",
		Long: `Notes classifies the commits made since the last version tag and prints
the notes the next release would carry. Nothing is tagged or published.

On a terminal the markdown is rendered; use --raw to print it as is.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runNotes(c.Context(), opts, loadConfig, raw || !isTerminal(opts.Out))
		},
	}

	cobraCmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown without rendering it")
	return cobraCmd
}

func runNotes(ctx context.Context, opts *cmd.Options, loadConfig cmd.LoadConfigFunc, raw bool) error {
	cfg, err := loadConfig(opts.Dir)
	if err != nil {
		return err
	}
	repo, err := vcs.Open(opts.Dir)
	if err != nil {
		return err
	}
	rc, err := releasecmd.NewContext(opts, cfg, repo)
	if err != nil {
		return err
	}
	rc.DryRun = true

	list, err := targets.Build([]string{commitanalyzer.Name, releasenotes.Name}, targets.Deps{
		Config:        cfg,
		Dir:           opts.Dir,
		RepositoryURL: rc.RepositoryURL,
	})
	if err != nil {
		return err
	}

	result, err := release.New(list...).Run(ctx, rc)
	if err != nil {
		return err
	}
	if result.Severity == rules.None {
		fmt.Fprintln(opts.Out, "No unreleased changes")
		return nil
	}

	if raw {
		fmt.Fprintln(opts.Out, result.Notes)
		return nil
	}
	render(opts.Out, result.Notes)
	return nil
}

// render prints markdown through glamour, falling back to the plain text
func render(w io.Writer, markdown string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(WordWrap),
	)
	if err == nil {
		if rendered, err := renderer.Render(markdown); err == nil {
			fmt.Fprint(w, rendered)
			return
		}
	}
	fmt.Fprintln(w, markdown)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
