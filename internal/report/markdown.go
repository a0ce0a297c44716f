package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitekeeper/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// HTMLWriter renders the same document to HTML.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	md := markdown.NewMarkdown(w.output)
	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeIssues(md, report)
	w.writeNextSteps(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Sitekeeper Run Report")
	md.PlainText("")

	rows := [][]string{
		{"Site", "`" + report.SiteDir + "`"},
		{"Started", report.StartedAt.Format(timeLayout)},
	}
	if !report.FinishedAt.IsZero() {
		rows = append(rows, []string{"Finished", report.FinishedAt.Format(timeLayout)})
	}
	rows = append(rows, []string{"Status", w.statusBadge(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusBadge(report *model.RunReport) string {
	switch {
	case report.Aborted:
		return "❌ Aborted"
	case report.PagesFailed > 0:
		return "⚠️ " + statusText(report)
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages found", strconv.Itoa(report.PagesFound)},
			{"Pages processed", strconv.Itoa(report.PagesProcessed)},
			{"Pages unchanged", strconv.Itoa(report.PagesUnchanged)},
			{"Pages failed", strconv.Itoa(report.PagesFailed)},
			{"Style rules consolidated", strconv.Itoa(report.StyleRules)},
			{"Rules appended", strconv.Itoa(report.RulesAppended)},
			{"Styles replaced", strconv.Itoa(report.StylesReplaced)},
			{"Assets copied", strconv.Itoa(len(report.AssetsCopied))},
			{"Assets missing", strconv.Itoa(len(report.AssetsMissing))},
			{"Backup location", "`" + orDash(report.BackupDir) + "`"},
		},
	})
	md.PlainText("")

	if report.PagesFound > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	if n := report.PagesProcessed - report.PagesUnchanged; n > 0 {
		chart.LabelAndIntValue("Rewritten", uint64(n))
	}
	if report.PagesUnchanged > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(report.PagesUnchanged))
	}
	if report.PagesFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.PagesFailed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.Aborted:
		stage := "an unknown"
		if fatal := report.IssuesOfKind(model.KindFatal); len(fatal) > 0 {
			stage = "the " + fatal[0].Stage
		}
		md.Cautionf("The run was aborted in %s step. %d issue(s) recorded; see Errors below.", stage, len(report.Issues))
	case report.PagesFailed > 0:
		md.Warningf("%d page(s) could not be standardized and were left untouched.", report.PagesFailed)
	case len(report.AssetsMissing) > 0:
		md.Importantf("%d shared script(s) were missing from the template.", len(report.AssetsMissing))
	case report.HasIssues():
		md.Note("Only warnings were recorded.")
	default:
		md.Tip("No errors encountered.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Pages) == 0 {
		return
	}

	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(report.Pages))
	for i, p := range report.Pages {
		changes := "-"
		if len(p.Changes) > 0 {
			changes = strings.Join(p.Changes, ", ")
		}
		rows[i] = []string{
			"`" + p.Name + "`",
			string(p.Status),
			strconv.Itoa(p.StylesReplaced),
			truncateString(changes, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Status", "Styles", "Changes"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Errors")
	md.PlainText("")

	if len(report.Issues) == 0 {
		md.PlainText("No errors encountered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Issues))
	for i, issue := range report.Issues {
		rows[i] = []string{
			issue.Kind.String(),
			issue.Stage,
			orDash(issue.Page),
			truncateString(issue.Reason, 100),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Stage", "Page", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, issue := range report.Issues {
		if len(issue.Reason) > 100 {
			md.Details(issue.Stage+" "+issue.Page, issue.Reason)
		}
	}
}

func (w *MarkdownWriter) writeNextSteps(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Next Steps")
	md.PlainText("")
	md.OrderedList(nextSteps(report)...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by sitekeeper*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
