// Package database provides SQLite-based run history for sitekeeper.
//
// Every run of the maintenance pipeline can be recorded in a single
// database file under the XDG data directory. The history stores:
//   - one row per run with its counters and the full report as JSON
//   - one row per page outcome, so a page can be traced across runs
//
// SQLite (via modernc.org/sqlite) keeps the history in one CGO-free file
// that needs no server.
package database
