// Package assets copies the shared scripts from the course template into
// the site. A missing script is reported and skipped; it never stops the run.
package assets
