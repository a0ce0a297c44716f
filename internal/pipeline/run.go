package pipeline

import (
	"time"

	"github.com/nao1215/sitekeeper/internal/backup"
	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// Run is the state shared by the steps of one invocation.
// Only Styles and Report are written by more than one step; both are
// append-only and safe for concurrent use.
type Run struct {
	Config *config.Config
	Report *model.RunReport
	Styles *stylesheet.Accumulator

	// Snapshot is set by the backup step.
	Snapshot *backup.Snapshot

	// Results holds the per-page results of the standardize step in page order.
	Results []PageResult

	// ReportPath is set once the report file has been written.
	ReportPath string

	// HistoryID is the run's row in the history database, 0 if not saved.
	HistoryID int64
}

// NewRun creates the run state for cfg.
func NewRun(cfg *config.Config, startedAt time.Time) *Run {
	prefix := config.DefaultClassPrefix
	if cfg.Site != nil && cfg.Site.Styles.ClassPrefix != "" {
		prefix = cfg.Site.Styles.ClassPrefix
	}
	return &Run{
		Config: cfg,
		Report: model.NewRunReport(cfg.SiteDir, startedAt),
		Styles: stylesheet.NewAccumulator(prefix),
	}
}
