// Package main provides the entry point for the sitekeeper CLI.
//
// sitekeeper standardizes a directory of static course pages in one
// pass: it snapshots the directory, copies the shared scripts from the
// course template, gives every page the canonical shell (navigation,
// breadcrumb, footer, metadata) and moves inline styles into the shared
// stylesheet, then writes a plain-text report.
//
// Usage:
//
//	sitekeeper run [path]
//	sitekeeper check [path]
//	sitekeeper history [path]
//
// See --help for all available options.
package main

// main is the entry point for sitekeeper.
func main() {
	Execute()
}
