package standardize

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/sitekeeper/internal/config"
)

// interactiveSelector matches elements that need an accessible name.
const interactiveSelector = "a[href], button, input, select, textarea"

func (s *Standardizer) ensureAccessibility(d *Document, res *Result) {
	id := s.ensureMain(d, res)

	if d.doc.Find(SelectorSkipLink).Length() == 0 {
		d.doc.Find("body").First().PrependHtml(
			`<a href="#` + esc(id) + `" class="skip-to-main" data-landmark="skip-link">Skip to main content</a>` + "\n")
		res.add("skip-link")
	}

	labeled := 0
	d.doc.Find(interactiveSelector).Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "input" && strings.EqualFold(sel.AttrOr("type", ""), "hidden") {
			return
		}
		if hasAccessibleName(d.doc, sel) {
			return
		}
		sel.SetAttr("aria-label", deriveLabel(sel))
		labeled++
	})
	if labeled > 0 {
		res.add("aria-label")
	}
}

// ensureMain makes sure a main region exists and has an id, and returns
// that id. Without a main region, the body content between the shell
// landmarks is wrapped in <main id="main-content">.
func (s *Standardizer) ensureMain(d *Document, res *Result) string {
	if main := d.doc.Find(SelectorMain).First(); main.Length() > 0 {
		if id := strings.TrimSpace(main.AttrOr("id", "")); id != "" {
			return id
		}
		main.SetAttr("id", MainID)
		res.add("main:id")
		return MainID
	}

	body := d.doc.Find("body").First().Get(0)
	if body == nil {
		return MainID
	}

	var children []*html.Node
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		children = append(children, n)
	}
	first, last := -1, -1
	for i, n := range children {
		if isShell(d.doc, n) || isBlank(n) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}

	main := newElement(atom.Main, "id", MainID, LandmarkAttr, "main")
	if first < 0 {
		var anchor *html.Node
		if footer := d.doc.Find(SelectorFooter).First(); footer.Length() > 0 && footer.Get(0).Parent == body {
			anchor = footer.Get(0)
		} else {
			anchor = trailingScripts(body)
		}
		body.InsertBefore(main, anchor)
		res.add("main")
		return MainID
	}

	body.InsertBefore(main, children[first])
	for _, n := range children[first : last+1] {
		if isShell(d.doc, n) {
			continue
		}
		body.RemoveChild(n)
		main.AppendChild(n)
	}
	res.add("main")
	return MainID
}

// hasAccessibleName reports whether the element already has a name a
// screen reader can announce.
func hasAccessibleName(doc *goquery.Document, sel *goquery.Selection) bool {
	for _, a := range []string{"aria-label", "aria-labelledby", "title"} {
		if strings.TrimSpace(sel.AttrOr(a, "")) != "" {
			return true
		}
	}

	switch goquery.NodeName(sel) {
	case "a", "button":
		if collapse(sel.Text()) != "" {
			return true
		}
		return sel.Find("img[alt]").FilterFunction(func(_ int, img *goquery.Selection) bool {
			return strings.TrimSpace(img.AttrOr("alt", "")) != ""
		}).Length() > 0
	case "input":
		switch strings.ToLower(sel.AttrOr("type", "")) {
		case "submit", "reset", "button":
			if strings.TrimSpace(sel.AttrOr("value", "")) != "" {
				return true
			}
		case "image":
			if strings.TrimSpace(sel.AttrOr("alt", "")) != "" {
				return true
			}
		}
	}

	if sel.Closest("label").Length() > 0 {
		return true
	}
	if id := sel.AttrOr("id", ""); id != "" {
		return doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			return l.AttrOr("for", "") == id
		}).Length() > 0
	}
	return false
}

// deriveLabel builds an aria-label from the element's attributes.
func deriveLabel(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "a":
		if l := labelFromHref(sel.AttrOr("href", "")); l != "" {
			return l
		}
		return "Link"
	case "button":
		for _, a := range []string{"id", "name", "class"} {
			if v := strings.Fields(sel.AttrOr(a, "")); len(v) > 0 {
				return titleCase(v[0])
			}
		}
		return "Button"
	default:
		if p := collapse(sel.AttrOr("placeholder", "")); p != "" {
			return p
		}
		for _, a := range []string{"name", "id"} {
			if v := strings.TrimSpace(sel.AttrOr(a, "")); v != "" {
				return titleCase(v)
			}
		}
		kind := goquery.NodeName(sel)
		if t := sel.AttrOr("type", ""); t != "" && kind == "input" {
			kind = t
		}
		return titleCase(kind) + " field"
	}
}

// labelFromHref names a link after its target: "class_medic.html" ->
// "Class Medic", "#top" -> "Top", "mailto:a@b" -> "Email a@b".
func labelFromHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if frag, ok := strings.CutPrefix(href, "#"); ok {
		return titleCase(frag)
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "mailto":
		return "Email " + u.Opaque
	case "tel":
		return "Call " + u.Opaque
	}
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" {
		if u.Host != "" {
			return u.Host
		}
		return ""
	}
	base := path.Base(p)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == strings.TrimSuffix(config.DefaultIndexPage, ".html") {
		return "Home"
	}
	return titleCase(stem)
}
