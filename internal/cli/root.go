// Package cli provides the command-line interface for cleanse.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

// Version information (set at build time).
var Version = "0.1.0"

// ErrIssuesFound is returned by validate when any value fails a check. It
// makes the process exit with status 1 without printing an error.
var ErrIssuesFound = errors.New("consistency issues found")

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	profilePath string
	logLevel    string
	logFormat   string
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "cleanse",
		Short: "cleanse - tabular data cleaning",
		Long: `cleanse cleans CSV files with a fixed pipeline: column name
normalisation, missing data, duplicates, type coercion, text and format
standardisation, outliers and consistency checks.

Every change is recorded in an action log. Options come from a YAML profile
(--config), CLEANSE_* environment variables and flags, in increasing order
of precedence.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.profilePath, "config", "", "cleaning profile (YAML)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(newCleanCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, ErrIssuesFound) {
			printError(os.Stderr, err)
		}
		return 1
	}
	return 0
}

// printError writes err and, when the error is recognised, what to do about it.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if msg := core.MapError(err); msg.Code != "ERR000" {
		fmt.Fprintf(w, "%s (Code: %s)\n", msg.Action, msg.Code)
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display cleanse version information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleanse v%s\n", version)
		},
	}
}
