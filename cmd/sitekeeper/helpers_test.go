package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/sitekeeper/internal/config"
)

// testSite creates base/site with two pages and base/course_template/js with
// one of the two shared scripts. It returns the site directory.
func testSite(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	files := map[string]string{
		"site/index.html":                 `<html><head><title>Home</title></head><body><div style="color: red">Hello</div><img src="images/missing.jpg"></body></html>`,
		"site/broken.html":                "<html><body><div><p>trunc",
		"site/lesson_template.html":       `<html><body>template</body></html>`,
		"course_template/js/clipboard.js": "// clipboard\n",
		"course_template/js/unrelated.js": "// not in manifest\n",
	}
	for name, content := range files {
		path := filepath.Join(base, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(base, "site")
}

// testConfig returns a run configuration for site with history in historyDir.
func testConfig(site, historyDir string) *config.Config {
	cfg := config.NewConfig()
	cfg.SiteDir = site
	cfg.HistoryDir = historyDir
	return cfg
}
