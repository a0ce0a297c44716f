package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeeper/internal/audit"
	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/pipeline"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// errCheckFailed is returned by check --strict when the site is not clean.
var errCheckFailed = errors.New("site is not standardized")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Show what run would change without writing anything",
		Long: `Check standardizes every page in memory and lists, per page, the shell
parts that would be added and how many inline styles would be replaced.
Nothing is written: no backup, no scripts, no stylesheet, no report.

It also audits the files each page references: local images, scripts,
stylesheets and links that do not exist are listed, and JPEG/TIFF images
are read for EXIF metadata that should not be published (GPS positions,
camera serial numbers, author names).

Examples:
  # Check ./site
  sitekeeper check

  # Fail (exit 1) when any page would change or an audit finding exists
  sitekeeper check --strict site`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckCmd,
	}

	addSiteFlags(cmd)
	cmd.Flags().Bool("strict", false,
		"Exit non-zero when a page would change, fails to parse, or the audit finds problems")
	cmd.Flags().Bool("no-audit", false,
		"Skip the reference and image metadata audit")

	return cmd
}

// checkResult summarizes a dry run.
type checkResult struct {
	Pages      []pipeline.PageResult
	Rules      int
	Audit      *audit.SiteAudit
	WouldWrite int
	Failed     int
}

// clean reports whether the site needs nothing.
func (r *checkResult) clean() bool {
	if r.WouldWrite > 0 || r.Failed > 0 {
		return false
	}
	return r.Audit == nil || (len(r.Audit.Missing) == 0 && len(r.Audit.Metadata) == 0)
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	noAudit, err := cmd.Flags().GetBool("no-audit")
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cmd, cfg.SiteDir)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := checkSite(ctx, cfg, logger, !noAudit)
	if err != nil {
		return err
	}
	printCheck(cmd.OutOrStdout(), cfg, result)

	if strict && !result.clean() {
		return errCheckFailed
	}
	return nil
}

// checkSite runs the standardizer in dry-run mode and, if requested, the audit.
func checkSite(ctx context.Context, cfg *config.Config, logger *slog.Logger, withAudit bool) (*checkResult, error) {
	if info, err := os.Stat(cfg.SiteDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("site directory not found: %s", cfg.SiteDir)
	}

	paths, err := pipeline.ListPages(cfg.SiteDir, cfg.Site)
	if err != nil {
		return nil, err
	}

	prefix := config.DefaultClassPrefix
	if cfg.Site.Styles.ClassPrefix != "" {
		prefix = cfg.Site.Styles.ClassPrefix
	}
	acc := stylesheet.NewAccumulator(prefix)

	batch := pipeline.NewBatchProcessor(
		newStandardizer(cfg, logger),
		pipeline.WithConcurrency(cfg.Jobs),
		pipeline.WithBatchLogger(logger),
		pipeline.WithDryRun(true),
	)
	pages, err := batch.ProcessPages(ctx, cfg.SiteDir, paths, acc)
	if err != nil {
		return nil, err
	}

	result := &checkResult{Pages: pages, Rules: acc.Len()}
	for _, p := range pages {
		switch {
		case p.Err != nil:
			result.Failed++
		case p.Result.Changed:
			result.WouldWrite++
		}
	}

	if withAudit {
		result.Audit, err = audit.New(audit.WithLogger(logger)).Audit(ctx, cfg.SiteDir, paths)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// printCheck writes the dry-run listing.
func printCheck(out io.Writer, cfg *config.Config, r *checkResult) {
	fmt.Fprintf(out, "Checking %s (%d pages)\n\n", cfg.SiteDir, len(r.Pages))

	for _, p := range r.Pages {
		switch {
		case p.Err != nil:
			fmt.Fprintf(out, "  [failed]  %s: %v\n", p.Name, p.Err)
		case !p.Result.Changed:
			fmt.Fprintf(out, "  [ok]      %s\n", p.Name)
		default:
			fmt.Fprintf(out, "  [rewrite] %s\n", p.Name)
			if len(p.Result.Changes) > 0 {
				fmt.Fprintf(out, "            adds: %s\n", strings.Join(p.Result.Changes, ", "))
			}
			if n := p.Result.StylesReplaced + p.Result.EmptyStyles; n > 0 {
				fmt.Fprintf(out, "            inline styles: %d\n", n)
			}
		}
	}

	fmt.Fprintf(out, "\n%d page(s) would be rewritten, %d failed, %d style rule(s) would be consolidated.\n",
		r.WouldWrite, r.Failed, r.Rules)

	if r.Audit == nil {
		return
	}

	fmt.Fprintf(out, "\nMissing references (%d):\n", len(r.Audit.Missing))
	if len(r.Audit.Missing) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, m := range r.Audit.Missing {
		fmt.Fprintf(out, "  %s: %s %s\n", m.Page, m.Ref.Kind, m.Ref.Raw)
	}

	fmt.Fprintf(out, "\nImage metadata (%d image(s) scanned):\n", r.Audit.ImagesScanned)
	if len(r.Audit.Metadata) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, f := range r.Audit.Metadata {
		fmt.Fprintf(out, "  %s\n", f)
	}

	for _, issue := range r.Audit.Errors {
		fmt.Fprintf(out, "  - %s\n", issue)
	}
}
