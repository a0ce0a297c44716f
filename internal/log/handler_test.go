package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestRelPathHandler_Rel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	h := NewRelPathHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), root)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "page under root", in: filepath.Join(root, "guide.html"), want: "guide.html"},
		{name: "nested file", in: filepath.Join(root, "js", "clipboard.js"), want: "js/clipboard.js"},
		{name: "root itself", in: root, want: "."},
		{name: "outside root", in: filepath.Join(filepath.Dir(root), "other.html"), want: filepath.Join(filepath.Dir(root), "other.html")},
		{name: "relative value", in: "styles/main.css", want: "styles/main.css"},
		{name: "plain text", in: "unclosed <div>", want: "unclosed <div>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := h.Rel(tt.in); got != tt.want {
				t.Errorf("Rel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRelPathHandler_Handle(t *testing.T) {
	t.Parallel()

	t.Run("rewrites attributes and groups", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		var buf bytes.Buffer
		logger := slog.New(NewRelPathHandler(slog.NewTextHandler(&buf, nil), root))
		logger.Info("page skipped",
			"path", filepath.Join(root, "guide.html"),
			slog.Group("backup", "dir", filepath.Join(root, "old")),
			"count", 3,
		)

		out := buf.String()
		if !strings.Contains(out, "path=guide.html") {
			t.Errorf("path not rewritten: %s", out)
		}
		if !strings.Contains(out, "backup.dir=old") {
			t.Errorf("group attribute not rewritten: %s", out)
		}
		if !strings.Contains(out, "count=3") {
			t.Errorf("non-string attribute lost: %s", out)
		}
	})

	t.Run("with attrs", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		var buf bytes.Buffer
		logger := slog.New(NewRelPathHandler(slog.NewTextHandler(&buf, nil), root)).
			With("site", filepath.Join(root, "sub"))
		logger.Info("x")

		if !strings.Contains(buf.String(), "site=sub") {
			t.Errorf("With attribute not rewritten: %s", buf.String())
		}
	})

	t.Run("empty root passes through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewRelPathHandler(slog.NewTextHandler(&buf, nil), ""))
		logger.Info("x", "path", "/abs/page.html")

		if !strings.Contains(buf.String(), "path=/abs/page.html") {
			t.Errorf("unexpected rewrite: %s", buf.String())
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("warn level by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false, nil, "")
		logger.Info("hidden")
		logger.Warn("shown")

		if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		logger := NewLogger(&bytes.Buffer{}, true, nil, "")
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			t.Error("expected debug to be enabled")
		}
	})

	t.Run("log file receives JSON at debug level", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		var stderr, file bytes.Buffer
		logger := NewLogger(&stderr, false, &file, root)
		logger.Debug("page rewritten", "path", filepath.Join(root, "index.html"))

		if stderr.Len() != 0 {
			t.Errorf("debug record reached stderr: %s", stderr.String())
		}
		var rec map[string]any
		if err := json.Unmarshal(file.Bytes(), &rec); err != nil {
			t.Fatalf("log file is not JSON: %v\n%s", err, file.String())
		}
		if rec["msg"] != "page rewritten" || rec["path"] != "index.html" {
			t.Errorf("unexpected record: %v", rec)
		}
	})
}
