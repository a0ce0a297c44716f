// Package stylesheet consolidates inline styles into the shared stylesheet.
//
// An Accumulator collects normalized declaration blocks over one run and
// assigns each a deterministic class name derived from a SHA3 hash of the
// normalized text. Flush appends the collected rules to the stylesheet once
// at the end of the run, skipping rules an earlier run already wrote.
package stylesheet
