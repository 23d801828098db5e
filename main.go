// package main is the entry point for the commit-wizard tool
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alan/commit-wizard/cmd"
	commitcmd "github.com/alan/commit-wizard/cmd/commit"
	configcmd "github.com/alan/commit-wizard/cmd/config"
	lintcmd "github.com/alan/commit-wizard/cmd/lint"
	notescmd "github.com/alan/commit-wizard/cmd/notes"
	releasecmd "github.com/alan/commit-wizard/cmd/release"
	"github.com/alan/commit-wizard/internal/config"
	"github.com/alan/commit-wizard/internal/logging"
)

func main() {
	opts := cmd.NewOptions()
	var (
		logLevel  string
		logFormat string
		logFile   string
		logger    *logging.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "commit-wizard",
		Short: "Write conventional commits and release them as semantic versions",
		Long: `commit-wizard helps contributors write commit headers of the form
type(scope)!: subject, validates them, and turns the commits made since the
last release into the next semantic version: release notes, a git tag, an OCI
artifact, a Homebrew formula update and a GitHub release.`,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			logger, err = logging.New(logging.Options{
				Level:  logLevel,
				Format: logFormat,
				File:   logFile,
				Out:    opts.Err,
			})
			if err != nil {
				return err
			}
			opts.Logger = logger.Logger
			return nil
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&opts.Dir, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatAuto, "Log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file, rotated")

	rootCmd.AddCommand(commitcmd.NewCommitCmd(opts, config.Load))
	rootCmd.AddCommand(lintcmd.NewLintCmd(opts, config.Load))
	rootCmd.AddCommand(releasecmd.NewReleaseCmd(opts, config.Load))
	rootCmd.AddCommand(notescmd.NewNotesCmd(opts, config.Load))
	rootCmd.AddCommand(configcmd.NewConfigCmd(opts, config.Load, config.Save, config.ToYAML))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logger != nil {
		_ = logger.Close()
	}
	if err != nil {
		fmt.Fprintln(opts.Err, "Error:", err)
		os.Exit(1)
	}
}
