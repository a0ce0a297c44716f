// Package model defines the core data structures used throughout sitekeeper.
//
// This package contains the following main types:
//   - Page: one HTML file being standardized
//   - StyleOccurrence: an inline style attribute found on a page
//   - Issue: a recorded failure or warning with its stage and page
//   - RunReport: counters and issues accumulated over one run
//
// Several packages (standardize, pipeline, report, database) share these
// types, so they live here to avoid import cycles. All of them serialize
// to JSON for report output and history storage.
package model
