package standardize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// collectStyles records every style attribute in document order and,
// when enabled, the <style> elements to move into the stylesheet.
func (s *Standardizer) collectStyles(d *Document) {
	d.doc.Find("[style]").Each(func(i int, sel *goquery.Selection) {
		raw, _ := sel.Attr("style")
		n := sel.Get(0)
		d.styled = append(d.styled, n)
		d.Page.Styles = append(d.Page.Styles, model.StyleOccurrence{
			Page:         d.Page.Name,
			Element:      fmt.Sprintf("%s#%d", n.Data, i+1),
			Declarations: stylesheet.Normalize(raw),
		})
	})

	if !s.site.Styles.ExtractStyleBlocks {
		return
	}
	d.doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		css := strings.TrimSpace(sel.Text())
		if css == "" {
			return
		}
		d.blocks = append(d.blocks, sel.Get(0))
		d.blockTexts = append(d.blockTexts, css)
	})
}

// applyStyles replaces each style attribute with its registered class.
// Empty declarations only lose the attribute.
func (s *Standardizer) applyStyles(d *Document, res *Result) {
	for i, n := range d.styled {
		sel := d.doc.FindNodes(n).RemoveAttr("style")
		class := d.Page.Styles[i].ClassName
		if class == "" {
			res.EmptyStyles++
			continue
		}
		sel.SetAttr("class", strings.Join(append(strings.Fields(sel.AttrOr("class", "")), class), " "))
		res.StylesReplaced++
	}
	for _, n := range d.blocks {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		res.BlocksMoved++
	}
	if len(d.styled) > 0 || len(d.blocks) > 0 {
		res.add("styles")
	}
}
