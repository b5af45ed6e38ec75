// Package models defines the domain types for docgraph.
package models

// LinkKind identifies the Markdown syntax a link was written in.
type LinkKind string

const (
	LinkKindInline    LinkKind = "inline"
	LinkKindImage     LinkKind = "image"
	LinkKindAuto      LinkKind = "auto"
	LinkKindReference LinkKind = "reference"
)

// Link is an outbound reference exactly as written in a document.
type Link struct {
	Raw    string   `json:"raw"`
	Kind   LinkKind `json:"kind"`
	Line   int      `json:"line"`
	Column int      `json:"column"`
}

// Heading is a section heading with its generated anchor slug.
type Heading struct {
	Text  string `json:"text"`
	Slug  string `json:"slug"`
	Level int    `json:"level"`
	Line  int    `json:"line"`
}

// Document represents one parsed file of the documentation set.
type Document struct {
	Path        string         `json:"path"`
	Content     []byte         `json:"-"`
	Checksum    string         `json:"checksum"`
	Title       string         `json:"title,omitempty"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Links       []Link         `json:"links,omitempty"`
	Headings    []Heading      `json:"headings,omitempty"`
	// Anchors holds ids declared with raw HTML (<a name="..."> or id="...").
	Anchors  []string `json:"anchors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// HasAnchor reports whether fragment names a heading slug or an HTML anchor of d.
func (d *Document) HasAnchor(fragment string) bool {
	for _, h := range d.Headings {
		if h.Slug == fragment {
			return true
		}
	}
	for _, a := range d.Anchors {
		if a == fragment {
			return true
		}
	}
	return false
}

// LinkRef is a Link after resolution against its source document.
type LinkRef struct {
	Source   string   `json:"source"`
	Raw      string   `json:"raw"`
	Kind     LinkKind `json:"kind"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	External bool     `json:"external,omitempty"`
	// Target is the absolute path the link points at; empty when the link
	// is external or could not be resolved.
	Target   string `json:"target,omitempty"`
	Fragment string `json:"fragment,omitempty"`
	// Error is set when the raw string is not a usable path.
	Error string `json:"error,omitempty"`
}

// HasFragment reports whether the reference carries an in-document anchor.
func (r LinkRef) HasFragment() bool {
	return r.Fragment != ""
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path    string `json:"path"`
	RelPath string `json:"rel_path"`
}
