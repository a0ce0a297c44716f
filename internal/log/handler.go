package log

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// RelPathHandler wraps an slog.Handler and rewrites absolute paths under a
// root directory into root-relative, slash-separated paths.
type RelPathHandler struct {
	handler slog.Handler
	root    string
}

// NewRelPathHandler creates a RelPathHandler. An empty root disables rewriting.
// If handler is nil, slog.Default().Handler() is used.
func NewRelPathHandler(handler slog.Handler, root string) *RelPathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		root = filepath.Clean(root)
	}
	return &RelPathHandler{handler: handler, root: root}
}

// Enabled delegates to the underlying handler.
func (h *RelPathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *RelPathHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.root == "" {
		return h.handler.Handle(ctx, r)
	}
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RelPathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = h.rewriteAttr(a)
	}
	return &RelPathHandler{handler: h.handler.WithAttrs(out), root: h.root}
}

// WithGroup returns a new handler with the given group name.
func (h *RelPathHandler) WithGroup(name string) slog.Handler {
	return &RelPathHandler{handler: h.handler.WithGroup(name), root: h.root}
}

func (h *RelPathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, g := range group {
			out[i] = h.rewriteAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		return slog.String(a.Key, h.Rel(a.Value.String()))
	default:
		return a
	}
}

// Rel returns path relative to the handler's root when path is an absolute
// path inside it. Any other value is returned unchanged.
func (h *RelPathHandler) Rel(path string) string {
	if h.root == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(h.root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// level maps the verbose flag onto a minimum level.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates the application logger.
//
// Text records go to w at Warn level (Debug when verbose). When file is
// non-nil every record from Debug up is also written to it as JSON. Paths
// under siteDir are logged relative to it.
func NewLogger(w io.Writer, verbose bool, file io.Writer, siteDir string) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)}),
	}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	}
	return slog.New(NewRelPathHandler(handler, siteDir))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
