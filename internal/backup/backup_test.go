package backup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 17, 5, 58, 34, 0, time.UTC)
}

// writeTree creates files (relative path -> content) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func newSite(t *testing.T) (parent, site string) {
	t.Helper()
	parent = t.TempDir()
	site = filepath.Join(parent, "site")
	writeTree(t, site, map[string]string{
		"index.html":      "<p>index</p>",
		"broken.html":     "<div>",
		"styles/main.css": "body { margin: 0; }",
		"js/app.js":       "console.log(1)",
		"img/deep/a.txt":  "deep",
	})
	return parent, site
}

// TestCreate tests snapshot completeness and naming.
func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("copies every file byte for byte", func(t *testing.T) {
		t.Parallel()
		parent, site := newSite(t)
		m := NewManager(WithClock(fixedClock))

		snap, err := m.Create(context.Background(), site)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(parent, "backup_20261017_055834")
		if snap.Dir != want {
			t.Errorf("expected %q, got %q", want, snap.Dir)
		}
		if snap.Files != 5 {
			t.Errorf("expected 5 files, got %d", snap.Files)
		}

		err = filepath.WalkDir(site, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, _ := filepath.Rel(site, path)
			orig, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			copied, err := os.ReadFile(filepath.Join(snap.Dir, rel))
			if err != nil {
				t.Errorf("missing %s in snapshot: %v", rel, err)
				return nil
			}
			if string(orig) != string(copied) {
				t.Errorf("content differs for %s", rel)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("second snapshot in the same second gets a suffix", func(t *testing.T) {
		t.Parallel()
		parent, site := newSite(t)
		m := NewManager(WithClock(fixedClock))

		first, err := m.Create(context.Background(), site)
		if err != nil {
			t.Fatal(err)
		}
		second, err := m.Create(context.Background(), site)
		if err != nil {
			t.Fatal(err)
		}
		if first.Dir == second.Dir {
			t.Fatal("expected distinct snapshot directories")
		}
		if second.Dir != filepath.Join(parent, "backup_20261017_055834_2") {
			t.Errorf("unexpected second dir %q", second.Dir)
		}
	})

	t.Run("file mode is preserved", func(t *testing.T) {
		t.Parallel()
		_, site := newSite(t)
		script := filepath.Join(site, "run.sh")
		if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(script, 0o750); err != nil {
			t.Fatal(err)
		}
		snap, err := NewManager(WithClock(fixedClock)).Create(context.Background(), site)
		if err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(filepath.Join(snap.Dir, "run.sh"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o750 {
			t.Errorf("expected 0750, got %v", info.Mode().Perm())
		}
	})

	t.Run("symlinks are recreated", func(t *testing.T) {
		t.Parallel()
		_, site := newSite(t)
		if err := os.Symlink("index.html", filepath.Join(site, "home.html")); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
		snap, err := NewManager(WithClock(fixedClock)).Create(context.Background(), site)
		if err != nil {
			t.Fatal(err)
		}
		link, err := os.Readlink(filepath.Join(snap.Dir, "home.html"))
		if err != nil {
			t.Fatalf("expected symlink in snapshot: %v", err)
		}
		if link != "index.html" {
			t.Errorf("expected link to index.html, got %q", link)
		}
	})

	t.Run("exclude patterns skip files and directories", func(t *testing.T) {
		t.Parallel()
		_, site := newSite(t)
		writeTree(t, site, map[string]string{
			".git/HEAD":         "ref",
			"cache/x.pyc":       "bin",
			"notes/keep.txt":    "keep",
			"notes/scratch.pyc": "bin",
		})
		m := NewManager(WithClock(fixedClock), WithExclude([]string{".git", "*.pyc"}))
		snap, err := m.Create(context.Background(), site)
		if err != nil {
			t.Fatal(err)
		}
		for _, rel := range []string{".git", "cache/x.pyc", "notes/scratch.pyc"} {
			if _, err := os.Lstat(filepath.Join(snap.Dir, filepath.FromSlash(rel))); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("expected %s excluded", rel)
			}
		}
		if _, err := os.Stat(filepath.Join(snap.Dir, "notes", "keep.txt")); err != nil {
			t.Errorf("expected notes/keep.txt copied: %v", err)
		}
	})
}

// TestCreateErrors tests failure modes.
func TestCreateErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()
		_, err := NewManager().Create(context.Background(), filepath.Join(t.TempDir(), "nope"))
		var be *Error
		if !errors.As(err, &be) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if !errors.Is(err, ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("source is a file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "file.html")
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewManager().Create(context.Background(), path); !errors.Is(err, ErrNotDirectory) {
			t.Errorf("expected ErrNotDirectory, got %v", err)
		}
	})

	t.Run("unreadable file removes partial snapshot", func(t *testing.T) {
		t.Parallel()
		if os.Geteuid() == 0 {
			t.Skip("permission checks do not apply to root")
		}
		parent, site := newSite(t)
		locked := filepath.Join(site, "locked.html")
		if err := os.WriteFile(locked, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(locked, 0); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chmod(locked, 0o600) })

		_, err := NewManager(WithClock(fixedClock)).Create(context.Background(), site)
		var be *Error
		if !errors.As(err, &be) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if be.Path != locked {
			t.Errorf("expected failing path %q, got %q", locked, be.Path)
		}
		if _, err := os.Stat(filepath.Join(parent, "backup_20261017_055834")); !errors.Is(err, fs.ErrNotExist) {
			t.Error("expected partial snapshot removed")
		}
	})

	t.Run("error message names the source", func(t *testing.T) {
		t.Parallel()
		e := &Error{Source: "/srv/site", Err: ErrNotDirectory}
		if e.Error() != "backup of /srv/site failed: source is not a directory" {
			t.Errorf("unexpected message %q", e.Error())
		}
	})
}

// TestCreateRelativeSource tests that "." snapshots into the parent directory.
func TestCreateRelativeSource(t *testing.T) {
	parent, site := newSite(t)
	t.Chdir(site)

	snap, err := NewManager(WithClock(fixedClock)).Create(context.Background(), ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		t.Fatal(err)
	}
	gotParent, err := filepath.EvalSymlinks(filepath.Dir(snap.Dir))
	if err != nil {
		t.Fatal(err)
	}
	if gotParent != wantParent {
		t.Errorf("expected snapshot in %q, got %q", wantParent, snap.Dir)
	}
	if snap.Files != 5 {
		t.Errorf("expected 5 files, got %d", snap.Files)
	}
	entries, err := os.ReadDir(site)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() == "backup_20261017_055834" {
			t.Error("snapshot was created inside the site")
		}
	}
}

// TestCreateFilesystemRoot tests that a root directory is refused.
func TestCreateFilesystemRoot(t *testing.T) {
	t.Parallel()

	root := filepath.VolumeName(os.TempDir()) + string(filepath.Separator)
	_, err := NewManager(WithClock(fixedClock)).Create(context.Background(), root)
	if !errors.Is(err, ErrNoParent) {
		t.Errorf("expected ErrNoParent, got %v", err)
	}
}
