package standardize

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// mandatoryClose lists the elements whose end tag may not be omitted.
// Elements outside this set (p, li, td, custom and foreign elements, ...)
// may be closed implicitly.
var mandatoryClose = map[string]bool{
	"a": true, "abbr": true, "article": true, "aside": true, "audio": true,
	"b": true, "blockquote": true, "button": true, "canvas": true, "code": true,
	"details": true, "div": true, "dl": true, "em": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "i": true, "iframe": true, "label": true, "main": true,
	"nav": true, "ol": true, "pre": true, "script": true, "section": true,
	"select": true, "small": true, "span": true, "strong": true, "style": true,
	"summary": true, "svg": true, "table": true, "textarea": true, "title": true,
	"u": true, "ul": true, "video": true,
}

// voidElements never have content or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type openElement struct {
	name string
	line int
}

// Validate runs a strict structural check over the markup.
//
// The HTML5 tree builder recovers from any input, so a page is rejected
// here instead when rewriting it would silently restructure content:
// an empty document, a tokenizer failure, an end tag that closes past an
// element whose end tag is mandatory, or such an element still open at
// the end of the input (a truncated file).
func Validate(content []byte) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return &ParseError{Reason: "document is empty", Err: ErrEmptyDocument}
	}

	z := html.NewTokenizer(bytes.NewReader(content))
	line := 1
	var stack []openElement

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return &ParseError{Line: line, Reason: "tokenizer failure", Err: err}
			}
			break
		}
		startLine := line
		line += bytes.Count(z.Raw(), []byte("\n"))

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			stack = append(stack, openElement{name: tag, line: startLine})

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				// A stray end tag is dropped by the tree builder without
				// affecting the surrounding content.
				continue
			}
			for i := len(stack) - 1; i > idx; i-- {
				if mandatoryClose[stack[i].name] {
					return &ParseError{
						Line:   startLine,
						Reason: fmt.Sprintf("</%s> closes unclosed <%s> opened at line %d", tag, stack[i].name, stack[i].line),
					}
				}
			}
			stack = stack[:idx]
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if mandatoryClose[stack[i].name] {
			return &ParseError{
				Line:   line,
				Reason: fmt.Sprintf("unexpected end of document: <%s> opened at line %d is not closed", stack[i].name, stack[i].line),
			}
		}
	}
	return nil
}
