// Package pipeline runs the site maintenance steps in order.
//
// A run is a fixed sequence of steps (backup, assets, standardize,
// stylesheet, report, history) executed against one Run value that
// carries the configuration, the style accumulator and the report.
// Each step records its own non-fatal problems in the report and returns
// an error only when the run cannot go on.
//
// Pages inside the standardize step are processed by a BatchProcessor,
// one at a time by default or concurrently with errgroup when more than
// one job is configured. Both modes produce the same output.
package pipeline
