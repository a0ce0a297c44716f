package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitekeeper/internal/model"
)

// timeLayout is how timestamps appear in text and Markdown reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs the plain text report. It is the default format and
// the one written to phase1_report.txt.
type SimpleWriter struct {
	baseWriter

	// showEmpty lists unchanged pages too.
	showEmpty bool

	// verbose lists the changes made to each page.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list pages that were left unchanged.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the per-page change list.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	var sb strings.Builder
	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writePages(&sb, report)
	w.writeIssues(&sb, report)
	w.writeNextSteps(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       SITEKEEPER RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:             %s\n", report.SiteDir)
	fmt.Fprintf(sb, "Started:          %s\n", report.StartedAt.Format(timeLayout))
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(sb, "Finished:         %s\n", report.FinishedAt.Format(timeLayout))
		fmt.Fprintf(sb, "Duration:         %s\n", report.Duration().Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Status:           %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	w.writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "Pages Found:      %d\n", report.PagesFound)
	fmt.Fprintf(sb, "Pages Processed:  %d (%d unchanged)\n", report.PagesProcessed, report.PagesUnchanged)
	fmt.Fprintf(sb, "Pages Failed:     %d\n", report.PagesFailed)
	fmt.Fprintf(sb, "Style Rules:      %d consolidated, %d appended to %s\n",
		report.StyleRules, report.RulesAppended, orDash(report.Stylesheet))
	fmt.Fprintf(sb, "Styles Replaced:  %d\n", report.StylesReplaced)
	if report.StyleBlocks > 0 {
		fmt.Fprintf(sb, "Style Blocks:     %d\n", report.StyleBlocks)
	}
	fmt.Fprintf(sb, "Assets Copied:    %d%s\n", len(report.AssetsCopied), listSuffix(report.AssetsCopied))
	fmt.Fprintf(sb, "Assets Missing:   %d%s\n", len(report.AssetsMissing), listSuffix(report.AssetsMissing))
	fmt.Fprintf(sb, "Backup Location:  %s\n", orDash(report.BackupDir))
	if report.BackupFiles > 0 {
		fmt.Fprintf(sb, "Backup Files:     %d\n", report.BackupFiles)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.RunReport) {
	var lines []string
	for _, p := range report.Pages {
		if p.Status == model.PageUnchanged && !w.showEmpty {
			continue
		}
		line := fmt.Sprintf("  [%s] %s", p.Status, p.Name)
		if p.StylesReplaced > 0 {
			line += fmt.Sprintf(" (%d styles)", p.StylesReplaced)
		}
		if w.verbose && len(p.Changes) > 0 {
			line += "\n      " + strings.Join(p.Changes, ", ")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}

	w.writeSection(sb, "PAGES")
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIssues(sb *strings.Builder, report *model.RunReport) {
	w.writeSection(sb, "ERRORS")
	if len(report.Issues) == 0 {
		sb.WriteString("No errors encountered.\n\n")
		return
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(sb, "  - %s\n", issue.String())
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeNextSteps(sb *strings.Builder, report *model.RunReport) {
	steps := nextSteps(report)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("NEXT STEPS:\n")
	for i, s := range steps {
		fmt.Fprintf(sb, "%d. %s\n", i+1, s)
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
}

// statusText summarizes how the run ended.
func statusText(report *model.RunReport) string {
	switch {
	case report.Aborted:
		return "ABORTED"
	case report.PagesFailed > 0:
		return fmt.Sprintf("Complete with %d failed page(s)", report.PagesFailed)
	default:
		return "Complete"
	}
}

// nextSteps returns the report's checklist, or the default one for a
// report that was never finalized.
func nextSteps(report *model.RunReport) []string {
	if len(report.NextSteps) > 0 {
		return report.NextSteps
	}
	return model.DefaultNextSteps
}

func listSuffix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return " (" + strings.Join(names, ", ") + ")"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
