package standardize

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned for a page with no markup at all.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrNoBody is returned for a document without a <body>, such as a frameset page.
	ErrNoBody = errors.New("document has no body")

	// ErrStylesNotRegistered is returned by Apply when a page has inline
	// styles that were never registered with an accumulator.
	ErrStylesNotRegistered = errors.New("inline styles were not registered")

	// ErrNilAccumulator is returned when no accumulator is supplied.
	ErrNilAccumulator = errors.New("accumulator is nil")
)

// ParseError reports markup the standardizer refuses to rewrite.
// The page is left untouched on disk.
type ParseError struct {
	// Page is the page name.
	Page string

	// Line is the 1-based line where the problem was detected, 0 if unknown.
	Line int

	// Reason describes the structural problem.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	loc := e.Page
	if loc == "" {
		loc = "page"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", loc, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse error in %s: %s", loc, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
