package database

import "errors"

var (
	// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is
	// false and the database file does not exist.
	ErrDatabaseNotFound = errors.New("history database not found")

	// ErrRunNotFound is returned when a run ID has no record.
	ErrRunNotFound = errors.New("run not found")

	// ErrNilReport is returned when SaveRun is called without a report.
	ErrNilReport = errors.New("report is nil")
)
