package report

import "errors"

var (
	// ErrUnknownFormat is returned by NewWriter for an unsupported format name.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrNilReport is returned when a writer is given no report.
	ErrNilReport = errors.New("report is nil")
)
