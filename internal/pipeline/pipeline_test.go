package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// mockStep is a test double for pipeline steps.
type mockStep struct {
	name    string
	err     error
	calls   *[]string
	mu      *sync.Mutex
	execute func(ctx context.Context, run *Run) error
}

func (m *mockStep) Name() string {
	return m.name
}

func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.mu.Lock()
	*m.calls = append(*m.calls, m.name)
	m.mu.Unlock()
	if m.execute != nil {
		return m.execute(ctx, run)
	}
	return m.err
}

// recorder hands out mock steps that log their execution order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) step(name string, err error) *mockStep {
	return &mockStep{name: name, err: err, calls: &r.calls, mu: &r.mu}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRun(t *testing.T) *Run {
	t.Helper()
	cfg := config.NewConfig()
	cfg.SiteDir = t.TempDir()
	return NewRun(cfg, time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC))
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		p := New(WithLogger(quietLogger()))
		p.AddStep(rec.step("backup", nil))
		p.AddSteps(rec.step("assets", nil), rec.step("standardize", nil))

		run := newTestRun(t)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"backup", "assets", "standardize"}
		if len(rec.calls) != len(want) {
			t.Fatalf("calls = %v, want %v", rec.calls, want)
		}
		for i := range want {
			if rec.calls[i] != want[i] {
				t.Errorf("calls[%d] = %q, want %q", i, rec.calls[i], want[i])
			}
		}
		if run.Report.HasIssues() {
			t.Errorf("unexpected issues: %+v", run.Report.Issues)
		}
	})

	t.Run("stops on fatal step and records it", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		boom := errors.New("source not found")
		p := New(WithLogger(quietLogger()))
		p.AddSteps(rec.step("backup", boom), rec.step("assets", nil))

		run := newTestRun(t)
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if len(rec.calls) != 1 {
			t.Errorf("expected only the first step to run, got %v", rec.calls)
		}
		fatal := run.Report.IssuesOfKind(model.KindFatal)
		if len(fatal) != 1 || fatal[0].Stage != "backup" || fatal[0].Reason != "source not found" {
			t.Errorf("unexpected fatal issues: %+v", fatal)
		}
		if !run.Report.Aborted {
			t.Error("expected report to be marked aborted")
		}
	})

	t.Run("cancelled context stops before next step", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		ctx, cancel := context.WithCancel(context.Background())
		first := rec.step("first", nil)
		first.execute = func(context.Context, *Run) error {
			cancel()
			return nil
		}
		p := New(WithLogger(quietLogger()))
		p.AddSteps(first, rec.step("second", nil))

		run := newTestRun(t)
		err := p.Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(rec.calls) != 1 {
			t.Errorf("expected second step skipped, got %v", rec.calls)
		}
		fatal := run.Report.IssuesOfKind(model.KindFatal)
		if len(fatal) != 1 || fatal[0].Stage != "second" {
			t.Errorf("unexpected fatal issues: %+v", fatal)
		}
	})

	t.Run("step names", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		p := New()
		p.AddSteps(rec.step("a", nil), rec.step("b", nil))
		names := p.StepNames()
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("StepNames() = %v", names)
		}
	})
}

func TestNewRun(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Site.Styles.ClassPrefix = "x-"
	run := NewRun(cfg, time.Now())

	class, _ := run.Styles.Register("color: red;", "a.html", stylesheet.Origin{})
	if len(class) < 2 || class[:2] != "x-" {
		t.Errorf("expected class with configured prefix, got %q", class)
	}
	if run.Report.SiteDir != cfg.SiteDir {
		t.Errorf("SiteDir = %q", run.Report.SiteDir)
	}
}
