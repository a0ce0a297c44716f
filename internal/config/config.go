package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitekeeper"

	// DefaultSiteDir is the target directory used when no path argument
	// and no SITEKEEPER_SITE_DIR environment variable is given.
	DefaultSiteDir = "site"

	// DefaultTemplateDirName is the name of the sibling directory that holds
	// the shared course template (its js/ subdirectory provides the scripts).
	DefaultTemplateDirName = "course_template"

	// DefaultReportFile is the report file name written into the target directory.
	DefaultReportFile = "phase1_report.txt"

	// DefaultJobs processes pages one at a time.
	DefaultJobs = 1

	// MaxJobs caps page-level parallelism. Runs handle a few dozen files,
	// so more workers than this only add scheduling noise.
	MaxJobs = 32

	// EnvSiteDir overrides DefaultSiteDir.
	EnvSiteDir = "SITEKEEPER_SITE_DIR"

	// EnvTemplateDir overrides the template directory.
	EnvTemplateDir = "SITEKEEPER_TEMPLATE_DIR"
)

// Report formats accepted by --format.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// Config holds all options for one sitekeeper invocation.
// It is populated from CLI flags and passed down explicitly; nothing
// reads global state after the command has built it.
type Config struct {
	// SiteDir is the target directory containing the *.html pages.
	SiteDir string

	// TemplateDir is the course template directory. Shared scripts are read
	// from its js/ subdirectory. Empty means <parent of SiteDir>/course_template.
	TemplateDir string

	// ConfigFilePath is the explicit site profile path given with --config.
	ConfigFilePath string

	// Site is the site profile loaded from the YAML file (or defaults).
	Site *File

	// Jobs is the number of pages standardized concurrently.
	// 1 keeps the run strictly sequential.
	Jobs int

	// ReportFormat selects the report writer (text, markdown, json, html).
	ReportFormat string

	// ReportFile is the report file name, relative to SiteDir unless absolute.
	ReportFile string

	// SaveHistory records the run in the sqlite history database.
	SaveHistory bool

	// HistoryDir is the directory holding the history database.
	HistoryDir string

	// Verbose enables debug logging.
	Verbose bool

	// LogFile, when set, receives a JSON copy of every log record.
	LogFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SiteDir:      DefaultSiteDir,
		Site:         DefaultFile(),
		Jobs:         DefaultJobs,
		ReportFormat: FormatText,
		ReportFile:   DefaultReportFile,
		SaveHistory:  true,
		HistoryDir:   XDGDataDir(),
	}
}

// ResolvedTemplateDir returns the template directory, falling back to
// the course_template directory next to the site directory.
func (c *Config) ResolvedTemplateDir() string {
	if c.TemplateDir != "" {
		return c.TemplateDir
	}
	site := filepath.Clean(c.SiteDir)
	if base := filepath.Base(site); base == "." || base == ".." {
		if abs, err := filepath.Abs(site); err == nil {
			site = abs
		}
	}
	return filepath.Join(filepath.Dir(site), DefaultTemplateDirName)
}

// ResolvedReportPath returns the absolute-or-site-relative report path.
func (c *Config) ResolvedReportPath() string {
	if filepath.IsAbs(c.ReportFile) {
		return c.ReportFile
	}
	return filepath.Join(c.SiteDir, c.ReportFile)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SiteDir) == "" {
		return ErrNoSiteDir
	}
	if c.Jobs <= 0 || c.Jobs > MaxJobs {
		return ErrInvalidJobs
	}
	switch c.ReportFormat {
	case FormatText, FormatMarkdown, FormatJSON, FormatHTML:
	default:
		return ErrUnknownReportFormat
	}
	if strings.TrimSpace(c.ReportFile) == "" {
		return ErrEmptyReportFile
	}
	if c.SaveHistory && c.HistoryDir == "" {
		return ErrNoHistoryDir
	}
	return nil
}

// LoadEnv reads a .env file from the working directory if there is one.
// A missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
}

// SiteDirFromArgs picks the target directory: the first positional argument,
// then SITEKEEPER_SITE_DIR, then DefaultSiteDir.
func SiteDirFromArgs(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	if env := strings.TrimSpace(os.Getenv(EnvSiteDir)); env != "" {
		return env
	}
	return DefaultSiteDir
}

// TemplateDirFromEnv returns SITEKEEPER_TEMPLATE_DIR or an empty string.
func TemplateDirFromEnv() string {
	return strings.TrimSpace(os.Getenv(EnvTemplateDir))
}

// XDGDataDir returns the XDG data directory for sitekeeper.
// On Linux: ~/.local/share/sitekeeper
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitekeeper.
// On Linux: ~/.config/sitekeeper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
