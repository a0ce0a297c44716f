package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/database"
	"github.com/nao1215/sitekeeper/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "List previous runs from the history database",
		Long: `History lists the runs recorded by 'sitekeeper run', newest first.

The history database lives in $XDG_DATA_HOME/sitekeeper/history.db.

Examples:
  # Runs for ./site
  sitekeeper history

  # Runs for every site
  sitekeeper history --all

  # Outcomes of one page across runs
  sitekeeper history --page class_medic.html site

  # Print the full report of run #7 as Markdown
  sitekeeper history --id 7 -f markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("all", "a", false, "List runs for every site")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringP("page", "p", "", "Show the outcomes of one page across runs")
	cmd.Flags().Int64P("id", "i", 0, "Print the stored report of one run")
	cmd.Flags().StringP("format", "f", config.FormatText, "Report format for --id: text, markdown, json or html")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	siteDir string
	all     bool
	limit   int
	page    string
	id      int64
	format  string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	config.LoadEnv()

	opts := historyOptions{siteDir: config.SiteDirFromArgs(args)}
	var err error
	if opts.all, err = cmd.Flags().GetBool("all"); err != nil {
		return err
	}
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.page, err = cmd.Flags().GetString("page"); err != nil {
		return err
	}
	if opts.id, err = cmd.Flags().GetInt64("id"); err != nil {
		return err
	}
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return err
	}

	return showHistory(context.Background(), config.XDGDataDir(), opts, cmd.OutOrStdout())
}

// showHistory opens the database in dbDir and prints what opts selects.
func showHistory(ctx context.Context, dbDir string, opts historyOptions, out io.Writer) error {
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'sitekeeper run' to standardize a site.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	switch {
	case opts.id > 0:
		return printStoredRun(ctx, db, opts.id, opts.format, out)
	case opts.page != "":
		return printPageHistory(ctx, db, opts.siteDir, opts.page, out)
	default:
		site := opts.siteDir
		if opts.all {
			site = ""
		}
		return printRuns(ctx, db, site, opts.limit, out)
	}
}

// printRuns lists stored runs, newest first. An empty site lists every site.
func printRuns(ctx context.Context, db *database.HistoryDB, site string, limit int, out io.Writer) error {
	runs, err := db.ListRuns(ctx, site, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if site == "" {
			fmt.Fprintln(out, "No runs recorded yet.")
		} else {
			fmt.Fprintf(out, "No runs recorded for %s\n", database.SiteKey(site))
		}
		return nil
	}

	if site == "" {
		fmt.Fprintf(out, "Runs (%d):\n\n", len(runs))
	} else {
		fmt.Fprintf(out, "Runs for %s (%d):\n\n", database.SiteKey(site), len(runs))
	}
	fmt.Fprintf(out, "  %-5s  %-19s  %-6s  %-9s  %-6s  %-6s  %s\n",
		"ID", "Started", "Found", "Processed", "Failed", "Rules", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, r := range runs {
		status := "ok"
		if r.Aborted {
			status = "aborted"
		}
		fmt.Fprintf(out, "  %-5d  %-19s  %-6d  %-9d  %-6d  %-6d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.PagesFound,
			r.PagesProcessed,
			r.PagesFailed,
			r.StyleRules,
			status,
		)
		if site == "" {
			fmt.Fprintf(out, "         %s\n", r.SiteDir)
		}
	}

	fmt.Fprintln(out, "\nUse 'sitekeeper history --id <id>' to print the report of one run.")
	return nil
}

// printPageHistory lists the outcomes of one page across runs.
func printPageHistory(ctx context.Context, db *database.HistoryDB, site, page string, out io.Writer) error {
	records, err := db.PageHistory(ctx, site, page)
	if err != nil {
		return fmt.Errorf("failed to get page history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No history for %s in %s\n", page, database.SiteKey(site))
		return nil
	}

	fmt.Fprintf(out, "History of %s (%d runs):\n\n", page, len(records))
	for _, rec := range records {
		changes := "-"
		if len(rec.Changes) > 0 {
			changes = strings.Join(rec.Changes, ", ")
		}
		fmt.Fprintf(out, "  #%-4d  %s  %-9s  styles:%-3d  %s\n",
			rec.RunID,
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Status,
			rec.StylesReplaced,
			changes,
		)
	}
	return nil
}

// printStoredRun writes the stored report of one run in the given format.
func printStoredRun(ctx context.Context, db *database.HistoryDB, id int64, format string, out io.Writer) error {
	stored, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", id, err)
	}

	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}
