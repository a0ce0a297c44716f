package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitekeeper/internal/model"
)

// FileName is the history database file name inside the data directory.
const FileName = "history.db"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB stores finalized run reports.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// With CreateIfNotExists false a missing file returns ErrDatabaseNotFound.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_found INTEGER NOT NULL DEFAULT 0,
		pages_processed INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		style_rules INTEGER NOT NULL DEFAULT 0,
		backup_dir TEXT,
		aborted INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site_dir);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS page_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		page TEXT NOT NULL,
		status TEXT NOT NULL,
		changes TEXT,
		styles_replaced INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON page_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_page ON page_results(page);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is one row of the run history without the full report.
type RunSummary struct {
	ID             int64
	SiteDir        string
	StartedAt      time.Time
	FinishedAt     time.Time
	PagesFound     int
	PagesProcessed int
	PagesFailed    int
	StyleRules     int
	BackupDir      string
	Aborted        bool
}

// PageRecord is one page outcome of a stored run.
type PageRecord struct {
	RunID          int64
	StartedAt      time.Time
	Page           string
	Status         model.PageStatus
	Changes        []string
	StylesReplaced int
}

// SiteKey returns the key runs are stored under: the absolute, cleaned
// site directory. Relative paths are resolved against the working directory.
func SiteKey(siteDir string) string {
	abs, err := filepath.Abs(siteDir)
	if err != nil {
		return filepath.Clean(siteDir)
	}
	return abs
}

// SaveRun stores a finalized report and its page outcomes in one transaction.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (site_dir, started_at, finished_at, pages_found, pages_processed,
		pages_failed, style_rules, backup_dir, aborted, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		SiteKey(report.SiteDir),
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		report.PagesFound,
		report.PagesProcessed,
		report.PagesFailed,
		report.StyleRules,
		report.BackupDir,
		boolToInt(report.Aborted),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, p := range report.Pages {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO page_results (run_id, page, status, changes, styles_replaced)
		VALUES (?, ?, ?, ?, ?)
		`, runID, p.Name, string(p.Status), strings.Join(p.Changes, ","), p.StylesReplaced)
		if err != nil {
			return 0, fmt.Errorf("failed to save page %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs first. An empty siteDir lists
// runs of every site; limit <= 0 means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, siteDir string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, site_dir, started_at, finished_at, pages_found, pages_processed,
		pages_failed, style_rules, backup_dir, aborted
	FROM runs`
	var args []any
	if siteDir != "" {
		query += " WHERE site_dir = ?"
		args = append(args, SiteKey(siteDir))
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			s                 RunSummary
			started, finished string
			backupDir         sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.SiteDir, &started, &finished, &s.PagesFound,
			&s.PagesProcessed, &s.PagesFailed, &s.StyleRules, &backupDir, &s.Aborted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished)
		s.BackupDir = backupDir.String
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetRun returns the full report stored for a run.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, "SELECT report_json FROM runs WHERE id = ?", id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// PageHistory returns the outcomes recorded for one page of a site,
// most recent run first.
func (h *HistoryDB) PageHistory(ctx context.Context, siteDir, page string) ([]PageRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT p.run_id, r.started_at, p.page, p.status, p.changes, p.styles_replaced
	FROM page_results p
	JOIN runs r ON r.id = p.run_id
	WHERE r.site_dir = ? AND p.page = ?
	ORDER BY r.started_at DESC, p.run_id DESC
	`, SiteKey(siteDir), page)
	if err != nil {
		return nil, fmt.Errorf("failed to get page history: %w", err)
	}
	defer rows.Close()

	var results []PageRecord
	for rows.Next() {
		var (
			rec     PageRecord
			started string
			status  string
			changes sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &started, &rec.Page, &status, &changes, &rec.StylesReplaced); err != nil {
			return nil, fmt.Errorf("failed to scan page record: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.Status = model.PageStatus(status)
		if changes.String != "" {
			rec.Changes = strings.Split(changes.String, ",")
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
