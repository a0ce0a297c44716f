// Package standardize rewrites HTML pages to the canonical page shell.
//
// A page goes through three phases:
//
//  1. Prepare validates and parses the markup, records which landmarks are
//     already present and collects the inline style occurrences.
//  2. Register hands the normalized style declarations to the run's
//     stylesheet.Accumulator, which assigns class names.
//  3. Apply adds the missing head metadata, navigation, breadcrumb,
//     footer and accessibility landmarks, replaces inline styles with
//     class references and renders the result.
//
// The phases are separate so the orchestrator can parse pages in
// parallel while registering styles in page order; Standardize runs all
// three for the sequential case.
//
// Landmark detection is structural. Each landmark is found by a marker
// selector (a data-landmark attribute or the canonical class), never by
// comparing text, so a page whose navigation was edited by hand is still
// recognized and left alone. Every element the standardizer inserts
// carries its marker, which makes a second pass a no-op.
package standardize
