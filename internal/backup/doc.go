// Package backup snapshots the site directory before a run mutates it.
//
// A snapshot is a full recursive copy placed next to the site directory
// in backup_<YYYYMMDD_HHMMSS>/. Snapshots are never updated or reused;
// a second run within the same second gets a numeric suffix.
package backup
