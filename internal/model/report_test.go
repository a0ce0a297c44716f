package model

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestRunReportCounters tests that page outcomes update the counters.
func TestRunReportCounters(t *testing.T) {
	t.Parallel()

	r := NewRunReport("/site", time.Now())
	r.SetPagesFound(3)
	r.RecordPage(PageOutcome{Name: "index.html", Status: PageRewritten, StylesReplaced: 2})
	r.RecordPage(PageOutcome{Name: "about.html", Status: PageUnchanged})
	r.RecordPage(PageOutcome{Name: "broken.html", Status: PageFailed})

	if r.PagesProcessed != 2 {
		t.Errorf("expected 2 processed, got %d", r.PagesProcessed)
	}
	if r.PagesUnchanged != 1 {
		t.Errorf("expected 1 unchanged, got %d", r.PagesUnchanged)
	}
	if r.PagesFailed != 1 {
		t.Errorf("expected 1 failed, got %d", r.PagesFailed)
	}
	if r.PagesProcessed+r.PagesFailed != r.PagesFound {
		t.Errorf("processed + failed (%d) != found (%d)", r.PagesProcessed+r.PagesFailed, r.PagesFound)
	}
	if r.StylesReplaced != 2 {
		t.Errorf("expected 2 styles replaced, got %d", r.StylesReplaced)
	}
}

// TestRunReportFinalize tests that Finalize freezes the report.
func TestRunReportFinalize(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	r := NewRunReport("/site", start)
	r.RecordPage(PageOutcome{Name: "a.html", Status: PageRewritten})

	if !r.Finalize(start.Add(2 * time.Second)) {
		t.Fatal("expected first Finalize to return true")
	}
	if r.Finalize(start.Add(time.Hour)) {
		t.Error("expected second Finalize to return false")
	}
	if r.Duration() != 2*time.Second {
		t.Errorf("expected 2s duration, got %v", r.Duration())
	}

	r.RecordPage(PageOutcome{Name: "b.html", Status: PageRewritten})
	r.AddIssue(Issue{Stage: "x", Kind: KindPage, Reason: "late"})
	if r.PagesProcessed != 1 {
		t.Errorf("expected counters frozen at 1, got %d", r.PagesProcessed)
	}
	if r.HasIssues() {
		t.Error("expected no issues after finalize")
	}
	if len(r.NextSteps) != len(DefaultNextSteps) {
		t.Errorf("expected default next steps, got %v", r.NextSteps)
	}
}

// TestRunReportIssues tests issue recording and filtering.
func TestRunReportIssues(t *testing.T) {
	t.Parallel()

	r := NewRunReport("/site", time.Now())
	r.AddIssue(Issue{Page: "clipboard.js", Stage: "assets", Kind: KindWarning, Reason: "missing"})
	r.AddIssue(Issue{Page: "broken.html", Stage: "standardize", Kind: KindPage, Reason: "parse"})

	if r.Aborted {
		t.Error("expected run not aborted")
	}
	if got := len(r.IssuesOfKind(KindPage)); got != 1 {
		t.Errorf("expected 1 page issue, got %d", got)
	}

	r.AddIssue(Issue{Stage: "backup", Kind: KindFatal, Reason: "source missing"})
	if !r.Aborted {
		t.Error("expected fatal issue to abort run")
	}
}

// TestRunReportConcurrentRecord tests that concurrent writers do not lose updates.
func TestRunReportConcurrentRecord(t *testing.T) {
	t.Parallel()

	r := NewRunReport("/site", time.Now())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RecordPage(PageOutcome{Name: "p.html", Status: PageRewritten, StylesReplaced: 1})
		}()
	}
	wg.Wait()

	if r.PagesProcessed != 50 || r.StylesReplaced != 50 {
		t.Errorf("expected 50/50, got %d/%d", r.PagesProcessed, r.StylesReplaced)
	}
}

// TestRunReportJSON tests that the report serializes with kind names.
func TestRunReportJSON(t *testing.T) {
	t.Parallel()

	r := NewRunReport("/site", time.Now())
	r.AddIssue(Issue{Page: "broken.html", Stage: "standardize", Kind: KindPage, Reason: "parse"})
	r.Finalize(time.Now())

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"PAGE"`) {
		t.Errorf("expected kind name in JSON, got %s", data)
	}
}
