package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DirPrefix starts the name of every snapshot directory.
const DirPrefix = "backup_"

// TimestampLayout formats the snapshot time in the directory name.
const TimestampLayout = "20060102_150405"

// maxSuffix bounds the search for a free snapshot name.
const maxSuffix = 1000

// Snapshot describes a completed backup. It is never modified.
type Snapshot struct {
	// Dir is the snapshot directory.
	Dir string `json:"dir"`

	// CreatedAt is the time used in the directory name.
	CreatedAt time.Time `json:"created_at"`

	// Files is the number of regular files and symlinks copied.
	Files int `json:"files"`

	// Bytes is the total size of the copied regular files.
	Bytes int64 `json:"bytes"`
}

// Manager creates snapshots.
type Manager struct {
	now     func() time.Time
	exclude []string
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithExclude sets glob patterns matched against base names. Matching
// files and directories are not copied.
func WithExclude(patterns []string) Option {
	return func(m *Manager) {
		m.exclude = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create copies source into a new sibling snapshot directory.
// On failure the partial snapshot is removed and an *Error is returned.
func (m *Manager) Create(ctx context.Context, source string) (*Snapshot, error) {
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Source: source, Err: ErrSourceNotFound}
		}
		return nil, &Error{Source: source, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Source: source, Err: ErrNotDirectory}
	}

	// "." and ".." must resolve to a real parent, or the snapshot lands inside the site.
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return nil, &Error{Source: source, Err: ErrNoParent}
	}
	source = abs

	created := m.now()
	dest, err := freeName(parent, DirPrefix+created.Format(TimestampLayout))
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}

	snap := &Snapshot{Dir: dest, CreatedAt: created}
	if err := m.copyTree(ctx, source, dest, snap); err != nil {
		if rmErr := os.RemoveAll(dest); rmErr != nil {
			m.logger.Warn("failed to remove partial backup", "dir", dest, "error", rmErr)
		}
		var be *Error
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, &Error{Source: source, Err: err}
	}

	m.logger.Debug("backup created", "dir", dest, "files", snap.Files, "bytes", snap.Bytes)
	return snap, nil
}

// freeName returns dir/base, or dir/base_N for the first free N.
func freeName(dir, base string) (string, error) {
	candidate := filepath.Join(dir, base)
	for i := 2; i <= maxSuffix; i++ {
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d", base, i))
	}
	return "", ErrNoFreeName
}

func (m *Manager) copyTree(ctx context.Context, source, dest string, snap *Snapshot) error {
	rootInfo, err := os.Stat(source)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dest, rootInfo.Mode().Perm()|0o700); err != nil {
		return err
	}

	return filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &Error{Source: source, Path: path, Err: walkErr}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if m.excluded(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dest, rel)
		info, err := d.Info()
		if err != nil {
			return &Error{Source: source, Path: path, Err: err}
		}

		switch {
		case d.IsDir():
			if err := os.Mkdir(target, info.Mode().Perm()|0o700); err != nil {
				return &Error{Source: source, Path: path, Err: err}
			}
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return &Error{Source: source, Path: path, Err: err}
			}
			if err := os.Symlink(link, target); err != nil {
				return &Error{Source: source, Path: path, Err: err}
			}
			snap.Files++
		case info.Mode().IsRegular():
			n, err := copyFile(path, target, info.Mode().Perm())
			if err != nil {
				return &Error{Source: source, Path: path, Err: err}
			}
			snap.Files++
			snap.Bytes += n
		default:
			m.logger.Debug("skipping special file", "path", path)
		}
		return nil
	})
}

func (m *Manager) excluded(name string) bool {
	for _, p := range m.exclude {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func copyFile(src, dst string, mode fs.FileMode) (int64, error) {
	in, err := os.Open(src) //nolint:gosec // walking the site directory
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode) //nolint:gosec // destination is inside the new snapshot
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	// The umask may have narrowed the mode at creation.
	return n, os.Chmod(dst, mode)
}
