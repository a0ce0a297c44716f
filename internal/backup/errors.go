package backup

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when the site directory does not exist.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrNotDirectory is returned when the source path is not a directory.
	ErrNotDirectory = errors.New("source is not a directory")

	// ErrNoParent is returned for a filesystem root, which has no sibling to hold a snapshot.
	ErrNoParent = errors.New("source has no parent directory")

	// ErrNoFreeName is returned when every candidate snapshot name is taken.
	ErrNoFreeName = errors.New("no free snapshot name")
)

// Error is returned for any failure to create a snapshot.
// The run must not continue to mutating steps after it.
type Error struct {
	// Source is the directory being copied.
	Source string

	// Path is the file that failed, empty for directory-level failures.
	Path string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("backup of %s failed at %s: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("backup of %s failed: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
