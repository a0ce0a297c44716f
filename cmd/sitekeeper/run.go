package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeeper/internal/assets"
	"github.com/nao1215/sitekeeper/internal/backup"
	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/pipeline"
	"github.com/nao1215/sitekeeper/internal/report"
	"github.com/nao1215/sitekeeper/internal/standardize"
)

// errRunAborted is returned when a fatal issue stopped the run.
var errRunAborted = errors.New("run aborted")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Back up and standardize every page of a site",
		Long: `Run standardizes the site directory in place.

Steps, in order:
  1. backup       copy the directory to a sibling backup_<timestamp>
  2. assets       copy the shared scripts from <template>/js
  3. standardize  give every page the canonical shell, replace inline styles
  4. stylesheet   append the consolidated rules to styles/main.css
  5. report       write phase1_report.txt into the site directory
  6. history      record the run in the local history database

A page that cannot be parsed is reported and left untouched; the run
continues. The run stops only if the site directory is missing or the
backup cannot be completed.

The site directory defaults to $SITEKEEPER_SITE_DIR, then ./site.
A .env file in the working directory is read first.

Examples:
  # Standardize ./site using ../course_template/js
  sitekeeper run

  # Standardize another directory with four workers
  sitekeeper run -j 4 ~/courses/warfare/site

  # Use an explicit template and write a Markdown report
  sitekeeper run -t ./course_template -f markdown -r report.md site`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}

	addSiteFlags(cmd)
	cmd.Flags().IntP("jobs", "j", config.DefaultJobs,
		"Number of pages standardized concurrently (1 keeps the run sequential)")
	cmd.Flags().StringP("format", "f", config.FormatText,
		"Report format: text, markdown, json or html")
	cmd.Flags().StringP("report", "r", config.DefaultReportFile,
		"Report file name, relative to the site directory unless absolute")
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")

	return cmd
}

// addSiteFlags adds the flags shared by run and check.
func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("template", "t", "",
		"Course template directory (default: $SITEKEEPER_TEMPLATE_DIR or <site>/../course_template)")
	cmd.Flags().StringP("config", "c", "",
		"Site profile path (default: .sitekeeper.yaml in the site or current directory)")
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog, err := setupLogger(cmd, cfg.SiteDir)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runSite(ctx, cfg, logger, cmd.OutOrStdout())
	return err
}

// buildConfig creates a Config from cobra command flags, the environment
// and the site profile.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	config.LoadEnv()

	cfg := config.NewConfig()
	cfg.SiteDir = config.SiteDirFromArgs(args)
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogFile = getLogFileFlag(cmd)

	var err error
	cfg.TemplateDir, err = cmd.Flags().GetString("template")
	if err != nil {
		return nil, err
	}
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = config.TemplateDirFromEnv()
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; otherwise a missing profile means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath, cfg.SiteDir)
	switch {
	case configPath != "":
		cfg.Site, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if cmd.Flags().Lookup("jobs") != nil {
		if cfg.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("format") != nil {
		if cfg.ReportFormat, err = cmd.Flags().GetString("format"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("report") != nil {
		if cfg.ReportFile, err = cmd.Flags().GetString("report"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Lookup("no-history") != nil {
		noHistory, err := cmd.Flags().GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveHistory = !noHistory
	}

	return cfg, nil
}

// newStandardizer creates the page standardizer for cfg.
func newStandardizer(cfg *config.Config, logger *slog.Logger) *standardize.Standardizer {
	return standardize.New(cfg.Site, standardize.WithLogger(logger))
}

// newPipeline assembles the run steps for cfg.
func newPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewBackupStep(backup.NewManager(
			backup.WithExclude(cfg.Site.Backup.Exclude),
			backup.WithLogger(logger),
		)),
		pipeline.NewAssetStep(assets.NewCopier(logger)),
		pipeline.NewStandardizeStep(pipeline.NewBatchProcessor(
			newStandardizer(cfg, logger),
			pipeline.WithConcurrency(cfg.Jobs),
			pipeline.WithBatchLogger(logger),
		)),
		pipeline.NewStylesheetStep(logger),
		pipeline.NewReportStep(),
	)
	if cfg.SaveHistory {
		p.AddStep(pipeline.NewHistoryStep(cfg.HistoryDir, logger))
	}
	return p
}

// runSite runs the pipeline against cfg.SiteDir and prints the summary to out.
// It returns an error when the run was aborted or the report could not be written.
func runSite(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*pipeline.Run, error) {
	p := newPipeline(cfg, logger)
	logger.Info("starting run",
		"site", cfg.SiteDir,
		"template", cfg.ResolvedTemplateDir(),
		"jobs", cfg.Jobs,
		"steps", p.StepNames(),
	)

	fmt.Fprintf(out, "Standardizing %s...\n", cfg.SiteDir)
	startTime := time.Now()

	run := pipeline.NewRun(cfg, startTime)
	execErr := p.Execute(ctx, run)

	// A fatal step stops the pipeline before the report step.
	run.Report.Finalize(time.Now())

	fmt.Fprintf(out, "Run completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	// -v lists every page with its changes, unchanged ones included.
	summary := report.NewSimpleWriter(out,
		report.WithVerbose(cfg.Verbose),
		report.WithShowEmpty(cfg.Verbose),
	)
	if _, err := summary.Write(run.Report); err != nil {
		logger.Error("failed to print summary", "error", err)
	}

	if run.ReportPath != "" {
		fmt.Fprintf(out, "\nReport written to %s\n", run.ReportPath)
	}
	if run.HistoryID > 0 {
		fmt.Fprintf(out, "Run recorded in history as #%d\n", run.HistoryID)
	}

	if run.Report.Aborted {
		return run, fmt.Errorf("%w: %v", errRunAborted, execErr)
	}
	if execErr != nil {
		return run, execErr
	}
	return run, nil
}
