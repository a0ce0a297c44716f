package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/sitekeeper/internal/assets"
	"github.com/nao1215/sitekeeper/internal/backup"
	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/database"
	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/report"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// Step names, used in logs and issue records.
const (
	StepBackup      = "backup"
	StepAssets      = "assets"
	StepStandardize = "standardize"
	StepStylesheet  = "stylesheet"
	StepReport      = "report"
	StepHistory     = "history"
)

// ErrListPages is returned when the site directory cannot be listed.
var ErrListPages = errors.New("cannot list site directory")

// ListPages returns the *.html files directly in siteDir, sorted by name,
// without the pages the site profile skips.
func ListPages(siteDir string, site *config.File) ([]string, error) {
	entries, err := os.ReadDir(siteDir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrListPages, siteDir, err)
	}

	pages := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".html") {
			continue
		}
		if site != nil && site.IsSkipped(name) {
			continue
		}
		pages = append(pages, filepath.Join(siteDir, name))
	}
	sort.Strings(pages)
	return pages, nil
}

// BackupStep snapshots the site directory. Its failure is fatal.
type BackupStep struct {
	manager *backup.Manager
}

// NewBackupStep creates a backup step.
func NewBackupStep(manager *backup.Manager) *BackupStep {
	return &BackupStep{manager: manager}
}

// Name returns the step name.
func (s *BackupStep) Name() string {
	return StepBackup
}

// Do executes the backup step.
func (s *BackupStep) Do(ctx context.Context, run *Run) error {
	snap, err := s.manager.Create(ctx, run.Config.SiteDir)
	if err != nil {
		return err
	}
	run.Snapshot = snap
	run.Report.SetBackup(snap.Dir, snap.Files)
	return nil
}

// AssetStep copies the shared scripts from the template into the site.
// Missing scripts are warnings; an unusable script directory is a stage issue.
type AssetStep struct {
	copier *assets.Copier
}

// NewAssetStep creates an asset step.
func NewAssetStep(copier *assets.Copier) *AssetStep {
	return &AssetStep{copier: copier}
}

// Name returns the step name.
func (s *AssetStep) Name() string {
	return StepAssets
}

// Do executes the asset step.
func (s *AssetStep) Do(ctx context.Context, run *Run) error {
	templateDir := run.Config.ResolvedTemplateDir()
	res, err := s.copier.Copy(ctx, templateDir, run.Config.SiteDir, run.Config.Site.Assets.Scripts)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if res != nil {
		run.Report.RecordAssets(res.Copied, res.Missing)
	}

	if errors.Is(err, assets.ErrScriptDir) {
		run.Report.AddIssue(model.Issue{
			Stage:  StepAssets,
			Kind:   model.KindStage,
			Reason: err.Error(),
		})
		return nil
	}

	if res != nil {
		for _, name := range res.Missing {
			run.Report.AddIssue(model.Issue{
				Page:   name,
				Stage:  StepAssets,
				Kind:   model.KindWarning,
				Reason: "not copied from " + filepath.Join(templateDir, assets.ScriptDir),
			})
		}
	}
	if err != nil {
		run.Report.AddIssue(model.Issue{
			Stage:  StepAssets,
			Kind:   model.KindStage,
			Reason: err.Error(),
		})
	}
	return nil
}

// StandardizeStep rewrites every page of the site. A page that fails is
// recorded and left untouched; only an unlistable site directory or
// cancellation stops the run.
type StandardizeStep struct {
	batch *BatchProcessor
}

// NewStandardizeStep creates a standardize step.
func NewStandardizeStep(batch *BatchProcessor) *StandardizeStep {
	return &StandardizeStep{batch: batch}
}

// Name returns the step name.
func (s *StandardizeStep) Name() string {
	return StepStandardize
}

// Do executes the standardize step.
func (s *StandardizeStep) Do(ctx context.Context, run *Run) error {
	paths, err := ListPages(run.Config.SiteDir, run.Config.Site)
	if err != nil {
		return err
	}
	run.Report.SetPagesFound(len(paths))

	results, err := s.batch.ProcessPages(ctx, run.Config.SiteDir, paths, run.Styles)
	run.Results = results
	if err != nil {
		return err
	}

	for _, r := range results {
		run.Report.RecordPage(r.Outcome())
		if r.Err != nil {
			run.Report.AddIssue(model.Issue{
				Page:   r.Name,
				Stage:  StepStandardize,
				Kind:   model.KindPage,
				Reason: r.Err.Error(),
			})
		}
	}
	return nil
}

// StylesheetStep appends the accumulated rules to the shared stylesheet.
type StylesheetStep struct {
	logger *slog.Logger
}

// NewStylesheetStep creates a stylesheet step.
func NewStylesheetStep(logger *slog.Logger) *StylesheetStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &StylesheetStep{logger: logger}
}

// Name returns the step name.
func (s *StylesheetStep) Name() string {
	return StepStylesheet
}

// Do executes the stylesheet step.
func (s *StylesheetStep) Do(ctx context.Context, run *Run) error {
	rel := run.Config.Site.Site.Stylesheet
	path := filepath.Join(run.Config.SiteDir, filepath.FromSlash(rel))
	blocks := len(run.Styles.Blocks())

	res, err := stylesheet.Flush(ctx, path, run.Styles)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		run.Report.SetStyles(rel, run.Styles.Len(), blocks, 0)
		run.Report.AddIssue(model.Issue{
			Page:   rel,
			Stage:  StepStylesheet,
			Kind:   model.KindStage,
			Reason: err.Error(),
		})
		return nil
	}

	run.Report.SetStyles(rel, run.Styles.Len(), blocks, res.Appended)
	s.logger.Info("stylesheet updated",
		"path", path,
		"created", res.Created,
		"appended", res.Appended,
		"skipped", res.Skipped,
		"blocks", res.Blocks,
		"shell_added", res.ShellAdded,
	)
	return nil
}

// ReportStep finalizes the report and writes it into the site directory.
type ReportStep struct {
	now func() time.Time
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportClock sets the clock used to stamp the finished report.
func WithReportClock(now func() time.Time) ReportStepOption {
	return func(s *ReportStep) {
		s.now = now
	}
}

// NewReportStep creates a report step.
func NewReportStep(opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return StepReport
}

// Do executes the report step. After it the report is frozen.
func (s *ReportStep) Do(_ context.Context, run *Run) error {
	run.Report.Finalize(s.now())
	path := run.Config.ResolvedReportPath()
	if err := report.WriteFile(path, run.Config.ReportFormat, run.Report); err != nil {
		return err
	}
	run.ReportPath = path
	return nil
}

// HistoryStep records the finalized run in the history database.
// The report is frozen by then, so a failure is only logged.
type HistoryStep struct {
	dir    string
	logger *slog.Logger
}

// NewHistoryStep creates a history step storing runs in dir.
func NewHistoryStep(dir string, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{dir: dir, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return StepHistory
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, run *Run) error {
	db, err := database.Open(s.dir, database.DefaultOptions())
	if err != nil {
		s.logger.Warn("run history unavailable", "dir", s.dir, "error", err)
		return nil
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, run.Report)
	if err != nil {
		s.logger.Warn("failed to record run history", "error", err)
		return nil
	}
	run.HistoryID = id
	s.logger.Debug("run recorded", "id", id, "db", db.Path())
	return nil
}
