package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLWriter renders the Markdown report as a standalone HTML page.
type HTMLWriter struct {
	baseWriter
	md goldmark.Markdown
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		md:         goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Write outputs the report as HTML.
func (w *HTMLWriter) Write(report *model.RunReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src).Write(report); err != nil {
		return 0, err
	}

	var body bytes.Buffer
	if err := w.md.Convert(src.Bytes(), &body); err != nil {
		return 0, fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&page, "<title>Sitekeeper Run Report - %s</title>\n", html.EscapeString(report.SiteDir))
	page.WriteString("<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem}" +
		"table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .5rem}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return w.output.Write(page.Bytes())
}
