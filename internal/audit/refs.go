package audit

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RefKind identifies the element a reference came from.
type RefKind string

const (
	// RefImage is an <img src> or icon <link>.
	RefImage RefKind = "image"
	// RefScript is a <script src>.
	RefScript RefKind = "script"
	// RefStylesheet is a <link rel="stylesheet">.
	RefStylesheet RefKind = "stylesheet"
	// RefLink is an <a href>.
	RefLink RefKind = "link"
)

// Ref is a local resource referenced by a page.
type Ref struct {
	Kind RefKind
	// Raw is the attribute value as written in the page.
	Raw string
	// Target is the referenced file relative to the site root, slash separated.
	Target string
}

// ExtractRefs parses a page and returns its local references in document
// order. name is the page path relative to the site root; relative
// references are resolved against its directory. External URLs, fragments,
// data URIs and references escaping the site root are skipped. Each target
// appears once per kind.
func ExtractRefs(name string, content []byte) ([]Ref, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	refs := make([]Ref, 0)
	seen := make(map[RefKind]map[string]bool)
	add := func(kind RefKind, raw string) {
		target, err := resolveLocal(name, raw)
		if err != nil {
			return
		}
		if seen[kind] == nil {
			seen[kind] = make(map[string]bool)
		}
		if seen[kind][target] {
			return
		}
		seen[kind][target] = true
		refs = append(refs, Ref{Kind: kind, Raw: raw, Target: target})
	}

	doc.Find("img[src], script[src], link[href], a[href]").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "img":
			add(RefImage, s.AttrOr("src", ""))
		case "script":
			add(RefScript, s.AttrOr("src", ""))
		case "link":
			rel := strings.ToLower(strings.TrimSpace(s.AttrOr("rel", "")))
			switch {
			case rel == "stylesheet":
				add(RefStylesheet, s.AttrOr("href", ""))
			case rel == "icon" || rel == "shortcut icon":
				add(RefImage, s.AttrOr("href", ""))
			}
		case "a":
			add(RefLink, s.AttrOr("href", ""))
		}
	})
	return refs, nil
}

// resolveLocal resolves raw against the directory of page and returns a
// site-relative path.
func resolveLocal(page, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", ErrNotLocal
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrNotLocal
	}
	if u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", ErrNotLocal
	}

	var target string
	if strings.HasPrefix(u.Path, "/") {
		target = path.Clean(strings.TrimPrefix(u.Path, "/"))
	} else {
		target = path.Join(path.Dir(page), u.Path)
	}
	if target == "." || target == ".." || strings.HasPrefix(target, "../") {
		return "", ErrNotLocal
	}
	return target, nil
}
