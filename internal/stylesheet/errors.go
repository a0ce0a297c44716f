package stylesheet

import "errors"

var (
	// ErrEmptyPath is returned when Flush is called without a stylesheet path.
	ErrEmptyPath = errors.New("stylesheet path is empty")

	// ErrNilAccumulator is returned when Flush is called without an accumulator.
	ErrNilAccumulator = errors.New("accumulator is nil")
)
