package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/graph"
)

// SortBy orders a file listing.
type SortBy string

const (
	SortByPath  SortBy = "path"
	SortByDepth SortBy = "depth"
)

// ParseSortBy validates a --sort value.
func ParseSortBy(s string) (SortBy, error) {
	switch v := SortBy(s); v {
	case SortByPath, SortByDepth:
		return v, nil
	case "":
		return SortByPath, nil
	}
	return "", fmt.Errorf("%w: invalid sort %q (want path or depth)", apperr.ErrConfiguration, s)
}

// Sort orders nodes in place. Depth ordering breaks ties by path.
func Sort(nodes []*graph.Node, by SortBy) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if by == SortByDepth && a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.RelPath < b.RelPath
	})
}

// FileEntry is the JSON shape of one listed file.
type FileEntry struct {
	Path        string         `json:"path"`
	Depth       int            `json:"depth"`
	Incoming    int            `json:"incoming"`
	Outgoing    int            `json:"outgoing"`
	Entrypoint  bool           `json:"entrypoint,omitempty"`
	Title       string         `json:"title,omitempty"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// Entries converts nodes into listing entries.
func Entries(nodes []*graph.Node) []FileEntry {
	out := make([]FileEntry, 0, len(nodes))
	for _, n := range nodes {
		e := FileEntry{
			Path:       n.RelPath,
			Depth:      n.Depth,
			Incoming:   n.Incoming,
			Outgoing:   n.Outgoing,
			Entrypoint: n.Entrypoint,
		}
		if n.Document != nil {
			e.Title = n.Document.Title
			e.Frontmatter = n.Document.Frontmatter
		}
		out = append(out, e)
	}
	return out
}

// WriteFiles prints one path per line, or a depth/edge table when long is set.
func WriteFiles(w io.Writer, nodes []*graph.Node, long bool) error {
	if !long {
		for _, n := range nodes {
			if _, err := fmt.Fprintln(w, n.RelPath); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPTH\tIN\tOUT\tPATH")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", n.Depth, n.Incoming, n.Outgoing, n.RelPath)
	}
	return tw.Flush()
}
