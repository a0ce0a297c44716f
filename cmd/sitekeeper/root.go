package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeeper/internal/log"
)

// NewRootCmd creates the root command for sitekeeper.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitekeeper",
		Short: "Standardize a directory of static course pages",
		Long: `sitekeeper brings every HTML page of a static course site to one canonical
shell: navigation, breadcrumb, footer, metadata and accessibility landmarks.
Inline styles are consolidated into the shared stylesheet and the shared
scripts are copied from the course template.

Every run first snapshots the site into a sibling backup_<timestamp>
directory and ends with a report in the site directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "", "Also write every log record as JSON to this file")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFileFlag retrieves the log-file flag from the command or its parent.
func getLogFileFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("log-file")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("log-file")
		if err != nil {
			return ""
		}
	}
	return path
}

// setupLogger creates the structured logger for one command. The returned
// function closes the log file, if any.
func setupLogger(cmd *cobra.Command, siteDir string) (*slog.Logger, func(), error) {
	var (
		file    io.Writer
		closeFn = func() {}
	)
	if path := getLogFileFlag(cmd); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // user-provided log path
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		closeFn = func() { _ = f.Close() } //nolint:errcheck // nothing left to log to
	}
	logger := log.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), file, siteDir)
	return logger, closeFn, nil
}
