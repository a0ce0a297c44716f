// Package log builds the slog loggers used by sitekeeper.
//
// Human-readable records go to stderr at Warn level, or Debug in verbose
// mode. When a log file is configured, every record is also written to it
// as JSON through a fanout handler.
//
// # Path rewriting
//
// RelPathHandler rewrites string attributes that hold absolute paths inside
// the site directory so that log lines show "guide.html" rather than the
// full path on the machine that ran the tool:
//
//	logger := log.NewLogger(os.Stderr, verbose, nil, cfg.SiteDir)
//	logger.Warn("page skipped", "path", "/srv/course/site/guide.html")
//	// level=WARN msg="page skipped" path=guide.html
package log
