package audit

import "errors"

var (
	// ErrNotLocal is returned when a reference points outside the site.
	ErrNotLocal = errors.New("reference is not a local file")

	// ErrImageTooLarge is returned when an image exceeds the size limit.
	ErrImageTooLarge = errors.New("image exceeds size limit")
)
