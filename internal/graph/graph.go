// Package graph builds the reachability graph of a documentation tree.
//
// Traversal is breadth-first from one or more entrypoints that share a
// single frontier, so each node's depth is its minimum distance from any
// entrypoint. Reads for a frontier level may run in parallel; results are
// replayed in frontier order so depths, edge counts and discovery order are
// identical to a strictly sequential walk.
package graph

import (
	"sort"

	"github.com/starford/docgraph/internal/models"
)

// Unbounded disables the depth limit.
const Unbounded = -1

// Node is one reachable document.
type Node struct {
	Path    string `json:"path"`
	RelPath string `json:"rel_path"`
	// Depth is the minimum number of link hops from any entrypoint.
	Depth int `json:"depth"`
	// Order is the position in breadth-first discovery order.
	Order      int  `json:"order"`
	Entrypoint bool `json:"entrypoint,omitempty"`
	// Incoming counts distinct reachable documents linking here.
	Incoming int `json:"incoming"`
	// Outgoing counts distinct reachable documents linked from here.
	Outgoing int `json:"outgoing"`
	// Document is nil when the file could not be read.
	Document *models.Document `json:"-"`
}

// ReadFailure records a frontier node whose content could not be loaded.
type ReadFailure struct {
	Path string
	Err  error
}

// Graph is the immutable result of a traversal.
type Graph struct {
	Root        string
	Entrypoints []string
	DepthBound  int

	nodes    map[string]*Node
	order    []*Node
	links    []models.LinkRef
	failures []ReadFailure
	loader   *Loader
}

func newGraph(root string, depth int, loader *Loader) *Graph {
	return &Graph{
		Root:       root,
		DepthBound: depth,
		nodes:      make(map[string]*Node),
		loader:     loader,
	}
}

func (g *Graph) add(path, rel string, depth int) *Node {
	n := &Node{Path: path, RelPath: rel, Depth: depth, Order: len(g.order)}
	g.nodes[path] = n
	g.order = append(g.order, n)
	return n
}

// Len returns the number of reachable documents.
func (g *Graph) Len() int { return len(g.order) }

// Has reports whether path is reachable.
func (g *Graph) Has(path string) bool {
	_, ok := g.nodes[path]
	return ok
}

// Node returns the node for an absolute path.
func (g *Graph) Node(path string) (*Node, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// Nodes returns every reachable node in discovery order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// SortedByPath returns every reachable node ordered by relative path.
func (g *Graph) SortedByPath() []*Node {
	out := g.Nodes()
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}

// Links returns every link recorded during traversal, in the order it was
// encountered.
func (g *Graph) Links() []models.LinkRef {
	out := make([]models.LinkRef, len(g.links))
	copy(out, g.links)
	return out
}

// Backlinks returns the recorded links resolving to path.
func (g *Graph) Backlinks(path string) []models.LinkRef {
	var out []models.LinkRef
	for _, l := range g.links {
		if l.Target == path && l.Source != path {
			out = append(out, l)
		}
	}
	return out
}

// Failures returns the frontier nodes that could not be read.
func (g *Graph) Failures() []ReadFailure {
	out := make([]ReadFailure, len(g.failures))
	copy(out, g.failures)
	return out
}

// Document returns the parsed document at path, loading it on demand when
// it lies outside the graph.
func (g *Graph) Document(path string) (*models.Document, error) {
	if n, ok := g.nodes[path]; ok && n.Document != nil {
		return n.Document, nil
	}
	return g.loader.Load(path)
}
