package standardize

import (
	"html"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/model"
)

func (s *Standardizer) ensureNavigation(d *Document, res *Result) {
	if d.doc.Find(SelectorNavigation).Length() > 0 {
		return
	}
	body := d.doc.Find("body").First()
	frag := s.navigationHTML(d.Page.Name)
	if skip := body.ChildrenFiltered(SelectorSkipLink).First(); skip.Length() > 0 {
		skip.AfterHtml(frag)
	} else {
		body.PrependHtml(frag)
	}
	res.add("navigation")
}

func (s *Standardizer) ensureBreadcrumb(d *Document, res *Result) {
	if d.Page.Name == s.site.Site.IndexPage {
		return
	}
	if d.doc.Find(SelectorBreadcrumb).Length() > 0 {
		return
	}
	frag := s.breadcrumbHTML(d.Page)
	if nav := d.doc.Find(SelectorNavigation).First(); nav.Length() > 0 {
		nav.AfterHtml(frag)
	} else {
		d.doc.Find("body").First().PrependHtml(frag)
	}
	res.add("breadcrumb")
}

// ensureProgress puts the scroll progress bar right before the
// navigation, or first in the body.
func (s *Standardizer) ensureProgress(d *Document, res *Result) {
	if !s.site.Shell.ProgressIndicator || d.doc.Find(SelectorProgress).Length() > 0 {
		return
	}
	frag := "\n<div class=\"progress-indicator\" data-landmark=\"progress\" role=\"progressbar\" aria-label=\"Page scroll progress\">" +
		"<div class=\"progress-bar\"></div></div>\n"
	body := d.doc.Find("body").First()
	if nav := body.ChildrenFiltered(SelectorNavigation).First(); nav.Length() > 0 {
		nav.BeforeHtml(frag)
	} else {
		body.PrependHtml(frag)
	}
	res.add("progress")
}

func (s *Standardizer) ensureFooter(d *Document, res *Result) {
	if d.doc.Find(SelectorFooter).Length() > 0 {
		return
	}
	body := d.doc.Find("body").First()
	frag := s.footerHTML()
	if anchor := trailingScripts(body.Get(0)); anchor != nil {
		d.doc.FindNodes(anchor).BeforeHtml(frag)
	} else {
		body.AppendHtml(frag)
	}
	res.add("footer")
}

// trailingScripts returns the first <script> of the run of scripts that
// ends the body, ignoring whitespace and comments, or nil.
func trailingScripts(body *xhtml.Node) *xhtml.Node {
	var first *xhtml.Node
	for n := body.LastChild; n != nil; n = n.PrevSibling {
		switch {
		case n.Type == xhtml.ElementNode && n.Data == "script":
			first = n
		case isBlank(n):
		default:
			return first
		}
	}
	return first
}

func (s *Standardizer) navigationHTML(current string) string {
	var b strings.Builder
	logo := s.site.Site.Name
	if s.site.Site.Logo != "" {
		logo = s.site.Site.Logo + " " + logo
	}

	b.WriteString("\n<nav class=\"main-nav\" data-landmark=\"navigation\" aria-label=\"Main navigation\">\n")
	b.WriteString("<div class=\"nav-container\">\n")
	b.WriteString(`<a href="` + esc(s.site.Site.IndexPage) + `" class="nav-logo">` + esc(logo) + "</a>\n")
	b.WriteString(`<button id="mobile-menu-toggle" class="mobile-menu-toggle" aria-expanded="false" aria-controls="nav-links" aria-label="Toggle menu">☰</button>` + "\n")
	b.WriteString("<div class=\"nav-links\" id=\"nav-links\">\n")
	for _, l := range s.site.Navigation {
		if len(l.Children) == 0 {
			b.WriteString(linkHTML(l, current) + "\n")
			continue
		}
		b.WriteString("<div class=\"dropdown\">\n")
		b.WriteString(`<a href="` + esc(l.Href) + `" class="dropdown-toggle">` + esc(l.Text) + " ▼</a>\n")
		b.WriteString("<div class=\"dropdown-content\">\n")
		for _, c := range l.Children {
			b.WriteString(linkHTML(c, current) + "\n")
		}
		b.WriteString("</div>\n</div>\n")
	}
	b.WriteString(`<button id="theme-toggle" class="theme-toggle" aria-label="Toggle theme">🌙</button>` + "\n")
	b.WriteString("</div>\n</div>\n</nav>\n")
	return b.String()
}

func (s *Standardizer) breadcrumbHTML(page *model.Page) string {
	stem := page.Stem()
	label := titleCase(stem)

	crumbs := []config.Link{{Text: "Home", Href: s.site.Site.IndexPage}}
	if sec, ok := s.site.SectionFor(stem); ok {
		crumbs = append(crumbs, sec.Parents...)
		if sec.Href != "" && sec.Href != page.Name {
			crumbs = append(crumbs, config.Link{Text: sec.Label, Href: sec.Href})
		}
		if rest := strings.TrimPrefix(stem, sec.Prefix); rest != "" {
			label = titleCase(rest)
		}
	}

	var b strings.Builder
	b.WriteString("\n<nav class=\"breadcrumb\" data-landmark=\"breadcrumb\" aria-label=\"Breadcrumb\">\n<ul>\n")
	for _, c := range crumbs {
		b.WriteString("<li>" + linkHTML(c, "") + "</li>\n")
	}
	b.WriteString(`<li aria-current="page">` + esc(label) + "</li>\n")
	b.WriteString("</ul>\n</nav>\n")
	return b.String()
}

func (s *Standardizer) footerHTML() string {
	var b strings.Builder
	b.WriteString("\n<footer class=\"site-footer\" data-landmark=\"footer\">\n<div class=\"footer-content\">\n")
	b.WriteString("<p>" + esc(s.site.CopyrightLine(s.now())) + "</p>\n")
	if len(s.site.Footer.Links) > 0 {
		links := make([]string, 0, len(s.site.Footer.Links))
		for _, l := range s.site.Footer.Links {
			links = append(links, linkHTML(l, ""))
		}
		b.WriteString("<p><small>" + strings.Join(links, " | ") + "</small></p>\n")
	}
	b.WriteString("</div>\n</footer>\n")
	return b.String()
}

// linkHTML renders an anchor. The link to the current page is marked
// with aria-current.
func linkHTML(l config.Link, current string) string {
	var b strings.Builder
	b.WriteString(`<a href="` + esc(l.Href) + `"`)
	if current != "" && l.Href == current {
		b.WriteString(` aria-current="page"`)
	}
	b.WriteString(">" + esc(l.Text) + "</a>")
	return b.String()
}

// titleCase turns a file stem into a label: "beginner_guide" -> "Beginner Guide".
func titleCase(stem string) string {
	words := strings.FieldsFunc(stem, isWordSeparator)
	if len(words) == 0 {
		return stem
	}
	// A Caser is stateful; build one per call so pages can run in parallel.
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func isBlank(n *xhtml.Node) bool {
	switch n.Type {
	case xhtml.CommentNode:
		return true
	case xhtml.TextNode:
		return strings.TrimSpace(n.Data) == ""
	}
	return false
}

func esc(s string) string { return html.EscapeString(s) }

// isShell reports whether a body child belongs to the page shell and
// therefore stays outside <main>.
func isShell(doc *goquery.Document, n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode {
		return false
	}
	if n.Data == "script" || n.Data == "noscript" {
		return true
	}
	sel := doc.FindNodes(n)
	return sel.Is(shellSelector) || sel.Find(shellSelector).Length() > 0
}

// ensureScripts appends a reference to every shared script the page
// does not load yet.
func (s *Standardizer) ensureScripts(d *Document, res *Result) {
	body := d.doc.Find("body").First().Get(0)
	if body == nil {
		return
	}
	for _, name := range s.site.Assets.Scripts {
		src := path.Join(config.DefaultScriptDir, name)
		found := d.doc.Find("script[src]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
			return strings.TrimPrefix(sel.AttrOr("src", ""), "./") == src
		})
		if found.Length() > 0 {
			continue
		}
		appendChild(body, newElement(atom.Script, "src", src))
		res.add("script:" + name)
	}
}
