// Package config provides configuration structures and utilities for sitekeeper.
// It defines the run options taken from the command line and the site profile
// (navigation, breadcrumb sections, footer, asset manifest) read from a YAML file.
package config
