package model

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Page represents one HTML file during its processing step.
// It is read from disk at the start of the step, transformed in memory
// and discarded after the write; nothing on it outlives the step except
// what the orchestrator copies into the RunReport.
type Page struct {
	// Path is the file path on disk.
	Path string `json:"path"`

	// Name is the path relative to the site root, using forward slashes.
	Name string `json:"name"`

	// Content is the original file content.
	Content []byte `json:"-"`

	// Hash is the SHA-256 of Content, used to detect whether a rewrite changed anything.
	Hash string `json:"hash"`

	// Title is the resolved page title after head normalization.
	Title string `json:"title,omitempty"`

	// Landmarks records which shell landmarks were already present
	// before standardization.
	Landmarks Landmarks `json:"landmarks"`

	// Styles lists the inline style occurrences found, in document order.
	Styles []StyleOccurrence `json:"styles,omitempty"`
}

// Landmarks flags the presence of each page shell landmark.
type Landmarks struct {
	Navigation bool `json:"navigation"`
	Breadcrumb bool `json:"breadcrumb"`
	Footer     bool `json:"footer"`
	Main       bool `json:"main"`
	SkipLink   bool `json:"skip_link"`
	Progress   bool `json:"progress"`
}

// StyleOccurrence is a declaration block that was attached to a single
// element through its style attribute.
type StyleOccurrence struct {
	// Page is the Name of the page the element belongs to.
	Page string `json:"page"`

	// Element is a structural hint such as "div#3" (tag and document position).
	Element string `json:"element"`

	// Declarations is the normalized declaration text.
	// Empty when the attribute held only whitespace.
	Declarations string `json:"declarations"`

	// ClassName is the generated class, empty for empty declarations.
	ClassName string `json:"class_name,omitempty"`
}

// NewPage creates a Page for the file at path with the given content.
// root is the site root used to derive Name.
func NewPage(path, root string, content []byte) *Page {
	name := filepath.Base(path)
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			name = filepath.ToSlash(rel)
		}
	}
	return &Page{
		Path:    path,
		Name:    name,
		Content: content,
		Hash:    ContentHash(content),
	}
}

// Stem returns the file name without directory and extension ("class_medic").
func (p *Page) Stem() string {
	base := filepath.Base(filepath.FromSlash(p.Name))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
