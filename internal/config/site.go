package config

import (
	"strings"
	"time"
)

// Canonical paths referenced from every standardized page.
const (
	DefaultStylesheet  = "styles/main.css"
	DefaultFavicon     = "favicon.ico"
	DefaultScriptDir   = "js"
	DefaultLang        = "en"
	DefaultIndexPage   = "index.html"
	DefaultClassPrefix = "ws-"

	DefaultMermaidModule = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs"
	DefaultMermaidTheme  = "default"
)

// DefaultScripts is the shared script manifest copied from the template
// and referenced at the end of every page.
var DefaultScripts = []string{"clipboard.js", "course-enhancements.js"}

// DefaultSkipPages are template pages that are never standardized.
var DefaultSkipPages = []string{"lesson_template.html", "index_template.html"}

// Link is a navigation or footer link. Children turn a navigation link
// into a dropdown group.
type Link struct {
	Text     string `yaml:"text"`
	Href     string `yaml:"href"`
	Children []Link `yaml:"children,omitempty"`
}

// SiteInfo describes the site as a whole.
type SiteInfo struct {
	// Name is shown in the navigation logo and the footer.
	Name string `yaml:"name,omitempty"`

	// Logo is an optional prefix (emoji or short text) for the logo link.
	Logo string `yaml:"logo,omitempty"`

	// Description is appended to the page title in meta description.
	Description string `yaml:"description,omitempty"`

	// Keywords are prepended to the page-specific keywords.
	Keywords []string `yaml:"keywords,omitempty"`

	// Author fills meta author. Empty adds no author.
	Author string `yaml:"author,omitempty"`

	// Lang is set on <html> when the element has no lang attribute.
	Lang string `yaml:"lang,omitempty"`

	// Favicon is the canonical favicon path.
	Favicon string `yaml:"favicon,omitempty"`

	// Stylesheet is the shared stylesheet path, relative to the site root.
	Stylesheet string `yaml:"stylesheet,omitempty"`

	// IndexPage is the site root page; it gets no breadcrumb.
	IndexPage string `yaml:"indexPage,omitempty"`
}

// Section groups pages by file name prefix for breadcrumbs.
// A page named "class_medic.html" matches the section with Prefix "class_".
type Section struct {
	Prefix string `yaml:"prefix"`
	Label  string `yaml:"label"`
	Href   string `yaml:"href"`

	// Parents are crumbs placed between Home and this section.
	Parents []Link `yaml:"parents,omitempty"`
}

// Footer holds the canonical footer content.
type Footer struct {
	// Copyright is the copyright line. An empty value renders
	// "© <year> <site name>".
	Copyright string `yaml:"copyright,omitempty"`
	Links     []Link `yaml:"links,omitempty"`
}

// Shell toggles the optional parts of the page shell.
type Shell struct {
	// ProgressIndicator adds the scroll progress bar above the navigation.
	ProgressIndicator bool `yaml:"progressIndicator,omitempty"`

	Mermaid Mermaid `yaml:"mermaid,omitempty"`
}

// Mermaid configures the diagram initializer module added to <head>.
type Mermaid struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Module  string `yaml:"module,omitempty"`
	Theme   string `yaml:"theme,omitempty"`
}

// Assets is the shared script manifest.
type Assets struct {
	Scripts []string `yaml:"scripts,omitempty"`
}

// Pages controls which pages are processed.
type Pages struct {
	Skip []string `yaml:"skip,omitempty"`
}

// Backup controls the snapshot copy.
type Backup struct {
	// Exclude holds glob patterns matched against base names.
	Exclude []string `yaml:"exclude,omitempty"`
}

// Styles controls inline style consolidation.
type Styles struct {
	// ClassPrefix prefixes every generated class name.
	ClassPrefix string `yaml:"classPrefix,omitempty"`

	// ExtractStyleBlocks also moves <style> elements into the shared stylesheet.
	ExtractStyleBlocks bool `yaml:"extractStyleBlocks,omitempty"`
}

// File represents the structure of the .sitekeeper.yaml site profile.
type File struct {
	Site       SiteInfo  `yaml:"site"`
	Navigation []Link    `yaml:"navigation,omitempty"`
	Sections   []Section `yaml:"sections,omitempty"`
	Footer     Footer    `yaml:"footer,omitempty"`
	Shell      Shell     `yaml:"shell,omitempty"`
	Assets     Assets    `yaml:"assets,omitempty"`
	Pages      Pages     `yaml:"pages,omitempty"`
	Backup     Backup    `yaml:"backup,omitempty"`
	Styles     Styles    `yaml:"styles,omitempty"`
}

// DefaultFile returns the profile used when no configuration file is found.
func DefaultFile() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

// applyDefaults fills every zero field with its default value.
func (f *File) applyDefaults() {
	if f.Site.Name == "" {
		f.Site.Name = "Course Guide"
	}
	if f.Site.Description == "" {
		f.Site.Description = "Course guide"
	}
	if f.Site.Lang == "" {
		f.Site.Lang = DefaultLang
	}
	if f.Site.Favicon == "" {
		f.Site.Favicon = DefaultFavicon
	}
	if f.Site.Stylesheet == "" {
		f.Site.Stylesheet = DefaultStylesheet
	}
	if f.Site.IndexPage == "" {
		f.Site.IndexPage = DefaultIndexPage
	}
	if len(f.Navigation) == 0 {
		f.Navigation = []Link{{Text: "Home", Href: f.Site.IndexPage}}
	}
	if len(f.Assets.Scripts) == 0 {
		f.Assets.Scripts = append([]string(nil), DefaultScripts...)
	}
	if f.Pages.Skip == nil {
		f.Pages.Skip = append([]string(nil), DefaultSkipPages...)
	}
	if f.Shell.Mermaid.Module == "" {
		f.Shell.Mermaid.Module = DefaultMermaidModule
	}
	if f.Shell.Mermaid.Theme == "" {
		f.Shell.Mermaid.Theme = DefaultMermaidTheme
	}
	if f.Styles.ClassPrefix == "" {
		f.Styles.ClassPrefix = DefaultClassPrefix
	}
}

// SectionFor returns the first section whose prefix matches the page stem.
func (f *File) SectionFor(stem string) (Section, bool) {
	for _, s := range f.Sections {
		if s.Prefix != "" && strings.HasPrefix(stem, s.Prefix) {
			return s, true
		}
	}
	return Section{}, false
}

// CopyrightLine returns the footer copyright text for the given time.
func (f *File) CopyrightLine(now time.Time) string {
	if f.Footer.Copyright != "" {
		return f.Footer.Copyright
	}
	return "© " + now.Format("2006") + " " + f.Site.Name + "."
}

// IsSkipped reports whether the page file name is on the skip list.
func (f *File) IsSkipped(name string) bool {
	for _, s := range f.Pages.Skip {
		if s == name {
			return true
		}
	}
	return false
}
