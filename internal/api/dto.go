package api

import (
	"github.com/starford/docgraph/internal/models"
)

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"docs/guide.md" validate:"required"`
	Title   string `json:"title" example:"Guide" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphNode is a reachable document.
type GraphNode struct {
	ID         string `json:"id" example:"docs/guide.md" validate:"required"`
	Title      string `json:"title,omitempty" example:"Guide"`
	Depth      int    `json:"depth" example:"1"`
	Entrypoint bool   `json:"entrypoint,omitempty"`
}

// GraphLink is an edge between two reachable documents.
type GraphLink struct {
	Source string `json:"source" example:"README.md" validate:"required"`
	Target string `json:"target" example:"docs/guide.md" validate:"required"`
}

// GraphResponse wraps the reachability graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// LinkDetail is one outbound link of a document.
type LinkDetail struct {
	Raw      string `json:"raw"`
	Kind     string `json:"kind"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	External bool   `json:"external,omitempty"`
	Target   string `json:"target,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

// DocumentDetail is the response payload for a single document.
type DocumentDetail struct {
	Path        string              `json:"path"`
	Title       string              `json:"title"`
	Checksum    string              `json:"checksum"`
	Depth       *int                `json:"depth"`
	Incoming    int                 `json:"incoming"`
	Outgoing    int                 `json:"outgoing"`
	Frontmatter map[string]any      `json:"frontmatter,omitempty"`
	Headings    []models.Heading    `json:"headings"`
	Links       []LinkDetail        `json:"links"`
	Backlinks   []string            `json:"backlinks"`
	Diagnostics []models.Diagnostic `json:"diagnostics,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Content     string              `json:"content"`
}
