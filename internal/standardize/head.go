package standardize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Canonical head values.
const (
	canonicalCharset  = "UTF-8"
	canonicalViewport = "width=device-width, initial-scale=1.0"
)

func (s *Standardizer) ensureDoctype(d *Document, res *Result) {
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.DoctypeNode {
			return
		}
	}
	d.root.InsertBefore(&html.Node{Type: html.DoctypeNode, Data: "html"}, d.root.FirstChild)
	res.add("doctype")
}

// normalizeHead appends the missing canonical head elements in the order
// charset, viewport, description, keywords, author, title, favicon,
// stylesheet, mermaid initializer.
// Existing elements are never modified.
func (s *Standardizer) normalizeHead(d *Document, res *Result) {
	htmlSel := d.doc.Find("html").First()
	if _, ok := htmlSel.Attr("lang"); !ok && htmlSel.Length() > 0 && s.site.Site.Lang != "" {
		htmlSel.SetAttr("lang", s.site.Site.Lang)
		res.add("lang")
	}

	head := d.doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	headNode := head.Get(0)

	title := s.resolveTitle(d)
	d.Page.Title = title

	if d.doc.Find("meta").FilterFunction(isCharsetMeta).Length() == 0 {
		appendChild(headNode, newElement(atom.Meta, "charset", canonicalCharset))
		res.add("meta:charset")
	}
	if !hasNamedMeta(d.doc, "viewport") {
		appendChild(headNode, newElement(atom.Meta, "name", "viewport", "content", canonicalViewport))
		res.add("meta:viewport")
	}
	if !hasNamedMeta(d.doc, "description") {
		appendChild(headNode, newElement(atom.Meta, "name", "description", "content", s.description(title)))
		res.add("meta:description")
	}
	if !hasNamedMeta(d.doc, "keywords") {
		if kw := s.keywords(d.Page.Stem()); kw != "" {
			appendChild(headNode, newElement(atom.Meta, "name", "keywords", "content", kw))
			res.add("meta:keywords")
		}
	}
	if s.site.Site.Author != "" && !hasNamedMeta(d.doc, "author") {
		appendChild(headNode, newElement(atom.Meta, "name", "author", "content", s.site.Site.Author))
		res.add("meta:author")
	}
	if d.doc.Find("title").Length() == 0 {
		t := newElement(atom.Title)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		appendChild(headNode, t)
		res.add("title")
	}
	if s.site.Site.Favicon != "" && d.doc.Find("link").FilterFunction(relContains("icon")).Length() == 0 {
		appendChild(headNode, newElement(atom.Link, "rel", "icon", "href", s.site.Site.Favicon, "type", "image/x-icon"))
		res.add("link:icon")
	}
	if s.site.Site.Stylesheet != "" {
		href := s.site.Site.Stylesheet
		found := d.doc.Find("link").FilterFunction(relContains("stylesheet")).FilterFunction(func(_ int, sel *goquery.Selection) bool {
			return sel.AttrOr("href", "") == href
		})
		if found.Length() == 0 {
			appendChild(headNode, newElement(atom.Link, "rel", "stylesheet", "href", href))
			res.add("link:stylesheet")
		}
	}
	if m := s.site.Shell.Mermaid; m.Enabled && !hasMermaid(d.doc) {
		script := newElement(atom.Script, "type", "module", LandmarkAttr, "mermaid")
		script.AppendChild(&html.Node{Type: html.TextNode, Data: mermaidInit(m.Module, m.Theme)})
		appendChild(headNode, script)
		res.add("script:mermaid")
	}
}

// hasMermaid reports whether the page already loads or initializes mermaid.
func hasMermaid(doc *goquery.Document) bool {
	if doc.Find(SelectorMermaid).Length() > 0 {
		return true
	}
	return doc.Find("script").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.Contains(sel.AttrOr("src", ""), "mermaid") ||
			strings.Contains(sel.Text(), "mermaid.initialize")
	}).Length() > 0
}

func mermaidInit(module, theme string) string {
	return "\nimport mermaid from '" + jsString(module) + "';\n" +
		"mermaid.initialize({ startOnLoad: true, theme: '" + jsString(theme) + "' });\n"
}

// jsString escapes s for a single-quoted JavaScript string inside <script>.
func jsString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "</", `<\/`).Replace(s)
}

// resolveTitle returns the existing <title> text, else the first <h1>
// text, else the title-cased file stem.
func (s *Standardizer) resolveTitle(d *Document) string {
	if t := collapse(d.doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h := collapse(d.doc.Find("h1").First().Text()); h != "" {
		return h
	}
	return titleCase(d.Page.Stem())
}

func (s *Standardizer) description(title string) string {
	if s.site.Site.Description == "" {
		return title
	}
	return title + " - " + s.site.Site.Description
}

// keywords joins the site keywords with the words of the page stem,
// dropping case-insensitive duplicates.
func (s *Standardizer) keywords(stem string) string {
	seen := make(map[string]bool)
	var out []string
	add := func(w string) {
		w = strings.TrimSpace(w)
		key := strings.ToLower(w)
		if w == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, w)
	}
	for _, k := range s.site.Site.Keywords {
		add(k)
	}
	for _, w := range strings.FieldsFunc(stem, isWordSeparator) {
		add(w)
	}
	return strings.Join(out, ", ")
}

func isCharsetMeta(_ int, sel *goquery.Selection) bool {
	if _, ok := sel.Attr("charset"); ok {
		return true
	}
	return strings.EqualFold(sel.AttrOr("http-equiv", ""), "content-type")
}

func hasNamedMeta(doc *goquery.Document, name string) bool {
	return doc.Find("meta").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(sel.AttrOr("name", "")), name)
	}).Length() > 0
}

func relContains(value string) func(int, *goquery.Selection) bool {
	return func(_ int, sel *goquery.Selection) bool {
		for _, r := range strings.Fields(sel.AttrOr("rel", "")) {
			if strings.EqualFold(r, value) {
				return true
			}
		}
		return false
	}
}

// newElement builds an element node; attrs are key/value pairs.
func newElement(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// appendChild appends n to parent on its own line.
func appendChild(parent, n *html.Node) {
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
	parent.AppendChild(n)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isWordSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}
