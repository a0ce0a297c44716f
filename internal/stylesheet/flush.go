package stylesheet

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ShellMarker opens the canonical shell rules in the stylesheet.
// Its presence means the shell rules were already appended.
const ShellMarker = "/* sitekeeper:shell */"

// blockMarkerPrefix opens every consolidated <style> block.
const blockMarkerPrefix = "/* sitekeeper:block "

// shellCSS holds the canonical rules for navigation, breadcrumb,
// footer and skip link.
//
//go:embed shell.css
var shellCSS string

// FlushResult describes what Flush wrote.
type FlushResult struct {
	// Path is the stylesheet path.
	Path string

	// Created is true when the stylesheet did not exist before.
	Created bool

	// Appended is the number of rules appended.
	Appended int

	// Skipped is the number of rules whose selector already existed.
	Skipped int

	// Blocks is the number of <style> blocks appended.
	Blocks int

	// ShellAdded is true when the shell rules were appended by this flush.
	ShellAdded bool
}

// Flush appends the accumulated rules to the stylesheet at path, creating
// the file and its directory if needed. Existing content is never
// rewritten. Rules whose selector already appears in the stylesheet are
// skipped so a second run does not duplicate them.
func Flush(ctx context.Context, path string, acc *Accumulator) (*FlushResult, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if acc == nil {
		return nil, ErrNilAccumulator
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &FlushResult{Path: path}

	existing, err := os.ReadFile(path) //nolint:gosec // path comes from the site configuration
	switch {
	case os.IsNotExist(err):
		result.Created = true
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create stylesheet directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read stylesheet: %w", err)
	}

	text := string(existing)
	selectors := existingSelectors(text)

	var b strings.Builder
	if !strings.Contains(text, ShellMarker) {
		b.WriteString(shellCSS)
		result.ShellAdded = true
	}

	for _, r := range acc.Rules() {
		if selectors[r.Selector()] {
			result.Skipped++
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "/* from %s */\n%s { %s }\n", r.Page, r.Selector(), r.Declarations)
		result.Appended++
	}

	for _, blk := range acc.Blocks() {
		marker := blockMarkerPrefix + blk.Hash + " */"
		if strings.Contains(text, marker) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n/* from %s */\n%s\n", marker, blk.Page, strings.TrimSpace(blk.CSS))
		result.Blocks++
	}

	if b.Len() == 0 {
		if result.Created {
			if err := os.WriteFile(path, nil, 0o644); err != nil { //nolint:gosec // stylesheet is served to browsers
				return nil, fmt.Errorf("failed to create stylesheet: %w", err)
			}
		}
		return result, nil
	}

	var out strings.Builder
	if len(text) > 0 {
		if !strings.HasSuffix(text, "\n") {
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}
	out.WriteString(b.String())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // stylesheet is served to browsers
	if err != nil {
		return nil, fmt.Errorf("failed to open stylesheet: %w", err)
	}
	if _, err := f.WriteString(out.String()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to append to stylesheet: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close stylesheet: %w", err)
	}
	return result, nil
}

// existingSelectors returns every selector of the stylesheet, including
// selectors nested in at-rules. Unparsable input falls back to a scan for
// class selectors followed by an opening brace.
func existingSelectors(text string) map[string]bool {
	out := make(map[string]bool)
	if strings.TrimSpace(text) == "" {
		return out
	}

	sheet, err := parser.Parse(text)
	if err != nil {
		for _, line := range strings.Split(text, "\n") {
			sel, _, ok := strings.Cut(line, "{")
			if !ok {
				continue
			}
			for _, s := range strings.Split(sel, ",") {
				out[strings.TrimSpace(s)] = true
			}
		}
		return out
	}

	var walk func(rules []*css.Rule)
	walk = func(rules []*css.Rule) {
		for _, r := range rules {
			for _, s := range r.Selectors {
				out[strings.TrimSpace(s)] = true
			}
			walk(r.Rules)
		}
	}
	walk(sheet.Rules)
	return out
}
