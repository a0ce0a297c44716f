// Package report renders a finished run report.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the plain text report written into the site directory
//   - MarkdownWriter: Markdown for sharing and documentation
//   - JSONWriter: structured JSON for tool integration
//   - HTMLWriter: the Markdown report rendered as a standalone HTML page
//
// Report data lives in the model package; writers only format it.
// NewWriter picks a writer by format name.
package report
