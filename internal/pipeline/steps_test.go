package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/sitekeeper/internal/assets"
	"github.com/nao1215/sitekeeper/internal/backup"
	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/database"
	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// writeTemplate creates base/course_template/js with the given scripts.
func writeTemplate(t *testing.T, base string, scripts ...string) string {
	t.Helper()
	dir := filepath.Join(base, config.DefaultTemplateDirName)
	if err := os.MkdirAll(filepath.Join(dir, assets.ScriptDir), 0o750); err != nil {
		t.Fatal(err)
	}
	for _, s := range scripts {
		if err := os.WriteFile(filepath.Join(dir, assets.ScriptDir, s), []byte("// "+s+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig(site, historyDir string) *config.Config {
	cfg := config.NewConfig()
	cfg.SiteDir = site
	cfg.HistoryDir = historyDir
	return cfg
}

// fullPipeline builds the pipeline the run command uses.
func fullPipeline(cfg *config.Config, jobs int) *Pipeline {
	logger := quietLogger()
	p := New(WithLogger(logger))
	p.AddSteps(
		NewBackupStep(backup.NewManager(backup.WithClock(fixedClock), backup.WithLogger(logger))),
		NewAssetStep(assets.NewCopier(logger)),
		NewStandardizeStep(NewBatchProcessor(newTestStandardizer(), WithConcurrency(jobs), WithBatchLogger(logger))),
		NewStylesheetStep(logger),
		NewReportStep(WithReportClock(fixedClock)),
		NewHistoryStep(cfg.HistoryDir, logger),
	)
	return p
}

func TestListPages(t *testing.T) {
	t.Parallel()

	t.Run("sorted html pages without skipped templates", func(t *testing.T) {
		t.Parallel()

		site := writeSite(t, t.TempDir())
		if err := os.Mkdir(filepath.Join(site, "sub.html"), 0o750); err != nil {
			t.Fatal(err)
		}
		paths, err := ListPages(site, config.DefaultFile())
		if err != nil {
			t.Fatalf("ListPages() error = %v", err)
		}
		var names []string
		for _, p := range paths {
			names = append(names, filepath.Base(p))
		}
		want := "broken.html,class_medic.html,guide.html,index.html"
		if got := strings.Join(names, ","); got != want {
			t.Errorf("ListPages() = %s, want %s", got, want)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := ListPages(filepath.Join(t.TempDir(), "nope"), nil)
		if !errors.Is(err, ErrListPages) {
			t.Errorf("expected ErrListPages, got %v", err)
		}
	})
}

func TestBackupStep(t *testing.T) {
	t.Parallel()

	t.Run("records snapshot", func(t *testing.T) {
		t.Parallel()

		site := writeSite(t, t.TempDir())
		run := NewRun(testConfig(site, t.TempDir()), fixedClock())
		step := NewBackupStep(backup.NewManager(backup.WithClock(fixedClock), backup.WithLogger(quietLogger())))
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if run.Snapshot == nil || run.Report.BackupDir != run.Snapshot.Dir {
			t.Fatalf("snapshot not recorded: %+v", run.Snapshot)
		}
		if run.Report.BackupFiles != len(fixturePages) {
			t.Errorf("BackupFiles = %d, want %d", run.Report.BackupFiles, len(fixturePages))
		}
	})

	t.Run("missing site is fatal", func(t *testing.T) {
		t.Parallel()

		run := NewRun(testConfig(filepath.Join(t.TempDir(), "site"), t.TempDir()), fixedClock())
		step := NewBackupStep(backup.NewManager(backup.WithLogger(quietLogger())))
		if err := step.Do(context.Background(), run); !errors.Is(err, backup.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})
}

func TestAssetStep(t *testing.T) {
	t.Parallel()

	t.Run("missing script is a warning", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		site := writeSite(t, base)
		writeTemplate(t, base, "clipboard.js")
		run := NewRun(testConfig(site, t.TempDir()), fixedClock())

		if err := NewAssetStep(assets.NewCopier(quietLogger())).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(run.Report.AssetsCopied) != 1 || len(run.Report.AssetsMissing) != 1 {
			t.Errorf("copied=%v missing=%v", run.Report.AssetsCopied, run.Report.AssetsMissing)
		}
		warnings := run.Report.IssuesOfKind(model.KindWarning)
		if len(warnings) != 1 || warnings[0].Page != "course-enhancements.js" {
			t.Errorf("unexpected warnings: %+v", warnings)
		}
		if _, err := os.Stat(filepath.Join(site, assets.ScriptDir, "clipboard.js")); err != nil {
			t.Errorf("script not copied: %v", err)
		}
	})

	t.Run("unusable script directory is a stage issue", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		site := writeSite(t, base)
		writeTemplate(t, base, "clipboard.js", "course-enhancements.js")
		if err := os.WriteFile(filepath.Join(site, assets.ScriptDir), []byte("not a dir"), 0o644); err != nil {
			t.Fatal(err)
		}
		run := NewRun(testConfig(site, t.TempDir()), fixedClock())

		if err := NewAssetStep(assets.NewCopier(quietLogger())).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		stage := run.Report.IssuesOfKind(model.KindStage)
		if len(stage) != 1 {
			t.Fatalf("expected one stage issue, got %+v", run.Report.Issues)
		}
		if len(run.Report.AssetsMissing) != 2 {
			t.Errorf("AssetsMissing = %v", run.Report.AssetsMissing)
		}
		if len(run.Report.IssuesOfKind(model.KindWarning)) != 0 {
			t.Error("expected no per-asset warnings")
		}
	})
}

func TestStylesheetStep(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	run := NewRun(testConfig(site, t.TempDir()), fixedClock())
	run.Styles.Register("color: red;", "index.html", stylesheet.Origin{})

	if err := NewStylesheetStep(quietLogger()).Do(context.Background(), run); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if run.Report.StyleRules != 1 || run.Report.RulesAppended != 1 {
		t.Errorf("StyleRules=%d RulesAppended=%d", run.Report.StyleRules, run.Report.RulesAppended)
	}
	data, err := os.ReadFile(filepath.Join(site, "styles", "main.css"))
	if err != nil {
		t.Fatalf("stylesheet not created: %v", err)
	}
	if !strings.Contains(string(data), stylesheet.ShellMarker) {
		t.Error("expected shell rules in new stylesheet")
	}
}

func TestRunPipeline(t *testing.T) {
	t.Parallel()

	for _, jobs := range []int{1, 4} {
		t.Run(fmt.Sprintf("jobs %d", jobs), func(t *testing.T) {
			t.Parallel()

			base := t.TempDir()
			site := writeSite(t, base)
			writeTemplate(t, base, "clipboard.js", "course-enhancements.js")
			historyDir := t.TempDir()
			cfg := testConfig(site, historyDir)

			run := NewRun(cfg, fixedClock())
			if err := fullPipeline(cfg, jobs).Execute(context.Background(), run); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			r := run.Report

			if !r.Finalized() {
				t.Error("expected finalized report")
			}
			if r.PagesFound != 4 || r.PagesProcessed != 3 || r.PagesFailed != 1 {
				t.Errorf("found=%d processed=%d failed=%d", r.PagesFound, r.PagesProcessed, r.PagesFailed)
			}
			if r.PagesProcessed+r.PagesFailed != r.PagesFound {
				t.Error("processed + failed != found")
			}
			if r.StyleRules != run.Styles.Len() {
				t.Errorf("StyleRules = %d, accumulator has %d", r.StyleRules, run.Styles.Len())
			}
			if r.StylesReplaced != 4 {
				t.Errorf("StylesReplaced = %d, want 4", r.StylesReplaced)
			}
			page := r.IssuesOfKind(model.KindPage)
			if len(page) != 1 || page[0].Page != "broken.html" || page[0].Stage != StepStandardize {
				t.Errorf("unexpected page issues: %+v", page)
			}
			if len(r.AssetsCopied) != 2 {
				t.Errorf("AssetsCopied = %v", r.AssetsCopied)
			}

			if _, err := os.Stat(filepath.Join(r.BackupDir, "broken.html")); err != nil {
				t.Errorf("backup incomplete: %v", err)
			}
			report, err := os.ReadFile(filepath.Join(site, config.DefaultReportFile))
			if err != nil {
				t.Fatalf("report not written: %v", err)
			}
			if !strings.Contains(string(report), "Pages Found:      4") {
				t.Errorf("unexpected report:\n%s", report)
			}
			if run.ReportPath != filepath.Join(site, config.DefaultReportFile) {
				t.Errorf("ReportPath = %q", run.ReportPath)
			}

			db, err := database.Open(historyDir, database.Options{})
			if err != nil {
				t.Fatalf("history not created: %v", err)
			}
			defer db.Close()
			runs, err := db.ListRuns(context.Background(), site, 0)
			if err != nil || len(runs) != 1 || runs[0].ID != run.HistoryID {
				t.Errorf("history = %+v, %v (HistoryID %d)", runs, err, run.HistoryID)
			}
		})
	}
}

func TestRunPipelineIdempotent(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	site := writeSite(t, base)
	writeTemplate(t, base, "clipboard.js", "course-enhancements.js")
	cfg := testConfig(site, t.TempDir())

	first := NewRun(cfg, fixedClock())
	if err := fullPipeline(cfg, 1).Execute(context.Background(), first); err != nil {
		t.Fatalf("first run: %v", err)
	}
	css1, err := os.ReadFile(filepath.Join(site, "styles", "main.css"))
	if err != nil {
		t.Fatal(err)
	}
	pages1 := readPages(t, site)

	second := NewRun(cfg, fixedClock())
	if err := fullPipeline(cfg, 1).Execute(context.Background(), second); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.Report.PagesUnchanged != 3 {
		t.Errorf("PagesUnchanged = %d, want 3", second.Report.PagesUnchanged)
	}
	if second.Report.RulesAppended != 0 {
		t.Errorf("RulesAppended = %d, want 0", second.Report.RulesAppended)
	}
	css2, err := os.ReadFile(filepath.Join(site, "styles", "main.css"))
	if err != nil {
		t.Fatal(err)
	}
	if string(css1) != string(css2) {
		t.Error("stylesheet changed on second run")
	}
	for name, content := range readPages(t, site) {
		if pages1[name] != content {
			t.Errorf("%s changed on second run", name)
		}
	}
	if first.Report.BackupDir == second.Report.BackupDir {
		t.Error("second backup overwrote the first")
	}
}

func TestRunPipelineMissingSite(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	site := filepath.Join(base, "site")
	cfg := testConfig(site, t.TempDir())

	run := NewRun(cfg, fixedClock())
	err := fullPipeline(cfg, 1).Execute(context.Background(), run)
	if !errors.Is(err, backup.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if !run.Report.Aborted {
		t.Error("expected aborted report")
	}
	if _, err := os.Stat(site); !os.IsNotExist(err) {
		t.Error("site directory must not be created")
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected nothing written next to the site, found %d entries", len(entries))
	}
}

func readPages(t *testing.T, site string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for name := range fixturePages {
		data, err := os.ReadFile(filepath.Join(site, name))
		if err != nil {
			t.Fatal(err)
		}
		out[name] = string(data)
	}
	return out
}
