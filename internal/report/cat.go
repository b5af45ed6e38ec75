package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/graph"
)

// CatOrder selects the concatenation order.
type CatOrder string

const (
	// CatDependency follows traversal order: entrypoints first, then by
	// depth and discovery.
	CatDependency   CatOrder = "dependency"
	CatAlphabetical CatOrder = "alphabetical"
)

// ParseCatOrder validates a --order value.
func ParseCatOrder(s string) (CatOrder, error) {
	switch v := CatOrder(s); v {
	case CatDependency, CatAlphabetical:
		return v, nil
	case "":
		return CatDependency, nil
	}
	return "", fmt.Errorf("%w: invalid order %q (want dependency or alphabetical)", apperr.ErrConfiguration, s)
}

// WriteCat concatenates the content of every readable node of g. Each file
// is introduced by an HTML comment naming it, so the output stays valid
// Markdown.
func WriteCat(w io.Writer, g *graph.Graph, order CatOrder) error {
	nodes := g.Nodes()
	if order == CatAlphabetical {
		nodes = g.SortedByPath()
	}
	first := true
	for _, n := range nodes {
		if n.Document == nil {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false
		if _, err := fmt.Fprintf(w, "<!-- %s -->\n", n.RelPath); err != nil {
			return err
		}
		content := n.Document.Content
		if _, err := w.Write(content); err != nil {
			return err
		}
		if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
