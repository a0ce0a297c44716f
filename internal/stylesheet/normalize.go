package stylesheet

import (
	"sort"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Normalize returns the canonical form of a style attribute value:
// lower-cased property names, collapsed whitespace, the last value of a
// repeated property, sorted by property and rendered as "prop: value;"
// joined by single spaces. It returns "" when nothing remains.
func Normalize(text string) string {
	decls := parseDeclarations(text)
	if len(decls) == 0 {
		return ""
	}

	values := make(map[string]string, len(decls))
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		value := collapse(d.Value)
		if prop == "" || value == "" {
			continue
		}
		if d.Important {
			value += " !important"
		}
		values[prop] = value
	}
	if len(values) == 0 {
		return ""
	}

	props := make([]string, 0, len(values))
	for p := range values {
		props = append(props, p)
	}
	sort.Strings(props)

	var b strings.Builder
	for i, p := range props {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
		b.WriteString(": ")
		b.WriteString(values[p])
		b.WriteByte(';')
	}
	return b.String()
}

// parseDeclarations parses with douceur and falls back to a plain split
// on ';' when the CSS tokenizer rejects the input (stray semicolons,
// missing colons).
func parseDeclarations(text string) []*css.Declaration {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	// douceur drops the value of a final declaration without a terminator.
	if !strings.HasSuffix(t, ";") {
		t += ";"
	}
	decls, err := parser.ParseDeclarations(t)
	if err != nil {
		return splitDeclarations(text)
	}
	return decls
}

func splitDeclarations(text string) []*css.Declaration {
	var out []*css.Declaration
	for _, part := range strings.Split(text, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		d := css.NewDeclaration()
		d.Property = strings.TrimSpace(prop)
		value = strings.TrimSpace(value)
		if v, found := strings.CutSuffix(strings.ToLower(value), "!important"); found {
			d.Important = true
			value = strings.TrimSpace(value[:len(v)])
		}
		d.Value = value
		out = append(out, d)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
