package model

import (
	"sync"
	"time"
)

// PageStatus is the outcome of one page's processing step.
type PageStatus string

const (
	// PageRewritten means the page was transformed and written back.
	PageRewritten PageStatus = "rewritten"

	// PageUnchanged means the page already had the canonical shell;
	// nothing was written.
	PageUnchanged PageStatus = "unchanged"

	// PageFailed means the page was skipped and left untouched.
	PageFailed PageStatus = "failed"
)

// PageOutcome summarizes what happened to one page.
type PageOutcome struct {
	Name   string     `json:"name"`
	Status PageStatus `json:"status"`

	// Changes lists the shell parts that were added ("navigation", "meta:viewport", ...).
	Changes []string `json:"changes,omitempty"`

	// StylesReplaced is the number of style attributes removed from the page.
	StylesReplaced int `json:"styles_replaced"`
}

// DefaultNextSteps is the operator checklist printed at the end of every report.
var DefaultNextSteps = []string{
	"Review the updated pages in a browser",
	"Test mobile responsiveness",
	"Verify all navigation links work",
	"Check that diagrams render correctly",
	"Test JavaScript functionality (copy buttons, theme toggle)",
}

// RunReport accumulates counters and issues over one run.
//
// Every component appends to it while the run is in progress; Finalize
// freezes it. Methods are safe for concurrent use so page workers can
// record outcomes directly.
type RunReport struct {
	mu sync.Mutex

	// SiteDir is the target directory of the run.
	SiteDir string `json:"site_dir"`

	// StartedAt and FinishedAt bracket the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// BackupDir is the snapshot location, empty if the backup did not complete.
	BackupDir string `json:"backup_dir,omitempty"`

	// BackupFiles is the number of files copied into the snapshot.
	BackupFiles int `json:"backup_files"`

	// PagesFound is the number of HTML files selected for processing.
	PagesFound int `json:"pages_found"`

	// PagesProcessed counts pages standardized successfully (rewritten or unchanged).
	PagesProcessed int `json:"pages_processed"`

	// PagesUnchanged counts processed pages that needed no rewrite.
	PagesUnchanged int `json:"pages_unchanged"`

	// PagesFailed counts pages skipped because of a page-level error.
	PagesFailed int `json:"pages_failed"`

	// StyleRules is the number of distinct declaration blocks registered.
	StyleRules int `json:"style_rules"`

	// StylesReplaced is the number of style attributes removed across all pages.
	StylesReplaced int `json:"styles_replaced"`

	// StyleBlocks is the number of distinct <style> blocks moved to the stylesheet.
	StyleBlocks int `json:"style_blocks"`

	// RulesAppended is the number of rules actually appended to the stylesheet
	// (rules already present from an earlier run are not appended again).
	RulesAppended int `json:"rules_appended"`

	// Stylesheet is the path of the shared stylesheet.
	Stylesheet string `json:"stylesheet,omitempty"`

	// AssetsCopied lists the shared scripts copied into place.
	AssetsCopied []string `json:"assets_copied,omitempty"`

	// AssetsMissing lists manifest entries absent from the template.
	AssetsMissing []string `json:"assets_missing,omitempty"`

	// Pages lists per-page outcomes in page order.
	Pages []PageOutcome `json:"pages,omitempty"`

	// Issues is the ordered error list.
	Issues []Issue `json:"issues,omitempty"`

	// Aborted is true when a fatal issue stopped the run.
	Aborted bool `json:"aborted"`

	// NextSteps is the operator checklist.
	NextSteps []string `json:"next_steps,omitempty"`

	finalized bool
}

// NewRunReport creates an empty report for the given site directory.
func NewRunReport(siteDir string, startedAt time.Time) *RunReport {
	return &RunReport{
		SiteDir:   siteDir,
		StartedAt: startedAt,
	}
}

// SetBackup records the snapshot location and size.
func (r *RunReport) SetBackup(dir string, files int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.BackupDir = dir
	r.BackupFiles = files
}

// SetPagesFound records the number of HTML files selected for processing.
func (r *RunReport) SetPagesFound(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.PagesFound = n
}

// RecordAssets records the asset copier result.
func (r *RunReport) RecordAssets(copied, missing []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.AssetsCopied = append(r.AssetsCopied, copied...)
	r.AssetsMissing = append(r.AssetsMissing, missing...)
}

// RecordPage adds a page outcome and updates the page counters.
func (r *RunReport) RecordPage(outcome PageOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.Pages = append(r.Pages, outcome)
	switch outcome.Status {
	case PageRewritten:
		r.PagesProcessed++
	case PageUnchanged:
		r.PagesProcessed++
		r.PagesUnchanged++
	case PageFailed:
		r.PagesFailed++
	}
	r.StylesReplaced += outcome.StylesReplaced
}

// SetStyles records the stylesheet accumulator totals and flush result.
func (r *RunReport) SetStyles(stylesheet string, rules, blocks, appended int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.Stylesheet = stylesheet
	r.StyleRules = rules
	r.StyleBlocks = blocks
	r.RulesAppended = appended
}

// AddIssue appends an issue to the error list. A fatal issue marks the run aborted.
func (r *RunReport) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.Issues = append(r.Issues, issue)
	if issue.Kind == KindFatal {
		r.Aborted = true
	}
}

// Finalize freezes the report. It returns false if the report was already final,
// in which case nothing changes.
func (r *RunReport) Finalize(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return false
	}
	r.FinishedAt = now
	if len(r.NextSteps) == 0 {
		r.NextSteps = append([]string(nil), DefaultNextSteps...)
	}
	r.finalized = true
	return true
}

// Finalized reports whether Finalize has been called.
func (r *RunReport) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// IssuesOfKind returns the issues with the given kind.
func (r *RunReport) IssuesOfKind(kind IssueKind) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Issue, 0)
	for _, i := range r.Issues {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// HasIssues reports whether any issue was recorded.
func (r *RunReport) HasIssues() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Issues) > 0
}

// Duration returns how long the run took; zero before Finalize.
func (r *RunReport) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
