package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ScriptDir is the script subdirectory on both the template and the site side.
const ScriptDir = "js"

// ErrScriptDir is returned when the site's script directory cannot be created.
var ErrScriptDir = errors.New("cannot create script directory")

// Result lists what Copy did, in manifest order.
type Result struct {
	// Copied holds the names copied into the site.
	Copied []string

	// Missing holds the names absent from the template, or every name when
	// the script directory could not be created.
	Missing []string
}

// Copier copies a manifest of shared scripts.
type Copier struct {
	logger *slog.Logger
}

// NewCopier creates a Copier. A nil logger uses slog.Default.
func NewCopier(logger *slog.Logger) *Copier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Copier{logger: logger}
}

// Copy copies each manifest entry from <templateDir>/js/ to <siteDir>/js/,
// overwriting existing files. A missing source is recorded in Result.Missing.
// The error is non-nil only when the script directory cannot be created
// (wrapping ErrScriptDir) or when a present source cannot be copied; Copy
// keeps going in the latter case and returns the joined errors.
func (c *Copier) Copy(ctx context.Context, templateDir, siteDir string, manifest []string) (*Result, error) {
	res := &Result{}
	dstDir := filepath.Join(siteDir, ScriptDir)
	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		res.Missing = append(res.Missing, manifest...)
		return res, fmt.Errorf("%w %s: %w", ErrScriptDir, dstDir, err)
	}

	var errs []error
	for _, name := range manifest {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src := filepath.Join(templateDir, ScriptDir, name)
		info, err := os.Stat(src)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			c.logger.Warn("shared script missing", "name", name, "template", templateDir)
			res.Missing = append(res.Missing, name)
			continue
		}
		if err != nil {
			res.Missing = append(res.Missing, name)
			errs = append(errs, fmt.Errorf("failed to stat %s: %w", name, err))
			continue
		}
		if err := copyFile(src, filepath.Join(dstDir, name)); err != nil {
			res.Missing = append(res.Missing, name)
			errs = append(errs, fmt.Errorf("failed to copy %s: %w", name, err))
			continue
		}
		c.logger.Debug("shared script copied", "name", name)
		res.Copied = append(res.Copied, name)
	}
	return res, errors.Join(errs...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // manifest entries are read from the template directory
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // destination is the site's script directory
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
