package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoSiteDir is returned when the target directory is empty.
	ErrNoSiteDir = errors.New("no site directory specified")

	// ErrInvalidJobs is returned when --jobs is outside 1..MaxJobs.
	ErrInvalidJobs = errors.New("invalid jobs: must be between 1 and 32")

	// ErrUnknownReportFormat is returned for a --format value other than
	// text, markdown, json or html.
	ErrUnknownReportFormat = errors.New("unknown report format: use text, markdown, json or html")

	// ErrEmptyReportFile is returned when the report file name is blank.
	ErrEmptyReportFile = errors.New("report file name must not be empty")

	// ErrNoHistoryDir is returned when history is enabled without a directory.
	ErrNoHistoryDir = errors.New("history enabled but no history directory configured")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
