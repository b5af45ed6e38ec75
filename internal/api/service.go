package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/engine"
	"github.com/starford/docgraph/internal/index"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/query"
	"github.com/starford/docgraph/internal/report"
)

// ErrNotReady is returned before the first lint run has completed.
var ErrNotReady = errors.New("no lint result yet")

// Linter runs a lint pass.
type Linter interface {
	Run(ctx context.Context) (*engine.Result, error)
}

// Service holds the latest lint result and answers API queries from it.
type Service struct {
	linter Linter
	db     index.Reader

	mu      sync.RWMutex
	last    *engine.Result
	lastErr error
}

// NewService creates a new API service. db may be nil, which disables search.
func NewService(linter Linter, db index.Reader) *Service {
	return &Service{linter: linter, db: db}
}

// Update records the outcome of a run performed elsewhere (e.g. the watcher).
func (s *Service) Update(res *engine.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return
	}
	s.last, s.lastErr = res, nil
}

// Lint runs a fresh pass and records it.
func (s *Service) Lint(ctx context.Context) (*engine.Result, error) {
	res, err := s.linter.Run(ctx)
	s.Update(res, err)
	return res, err
}

// Current returns the latest successful result. When the latest run failed
// its error is returned instead.
func (s *Service) Current() (*engine.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	if s.last == nil {
		return nil, ErrNotReady
	}
	return s.last, nil
}

// Graph returns the reachable documents and the edges between them.
func (s *Service) Graph() (*GraphResponse, error) {
	res, err := s.Current()
	if err != nil {
		return nil, err
	}
	g := res.Graph
	out := &GraphResponse{Nodes: []GraphNode{}, Links: []GraphLink{}}
	for _, n := range g.Nodes() {
		node := GraphNode{ID: n.RelPath, Depth: n.Depth, Entrypoint: n.Entrypoint}
		if n.Document != nil {
			node.Title = n.Document.Title
		}
		out.Nodes = append(out.Nodes, node)
	}
	seen := make(map[[2]string]bool)
	for _, l := range g.Links() {
		if l.Target == "" || l.Target == l.Source || !g.Has(l.Target) {
			continue
		}
		key := [2]string{l.Source, l.Target}
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Links = append(out.Links, GraphLink{
			Source: res.Store.Rel(l.Source),
			Target: res.Store.Rel(l.Target),
		})
	}
	return out, nil
}

// Files lists reachable documents filtered by a front-matter expression.
func (s *Service) Files(sortBy, expr string) ([]report.FileEntry, error) {
	res, err := s.Current()
	if err != nil {
		return nil, err
	}
	by, err := report.ParseSortBy(sortBy)
	if err != nil {
		return nil, err
	}
	e, err := query.Parse(expr)
	if err != nil {
		return nil, err
	}
	nodes := query.Filter(res.Graph.Nodes(), e)
	report.Sort(nodes, by)
	return report.Entries(nodes), nil
}

// Document returns one document with its links and backlinks. Documents
// outside the graph are parsed on demand.
func (s *Service) Document(rel string) (*DocumentDetail, error) {
	res, err := s.Current()
	if err != nil {
		return nil, err
	}
	abs, err := res.Store.Resolve(rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	}
	doc, err := res.Graph.Document(abs)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{
		Path:        res.Store.Rel(abs),
		Title:       doc.Title,
		Checksum:    doc.Checksum,
		Frontmatter: doc.Frontmatter,
		Headings:    doc.Headings,
		Content:     string(doc.Content),
		Warnings:    doc.Warnings,
		Links:       []LinkDetail{},
		Backlinks:   []string{},
	}
	if n, ok := res.Graph.Node(abs); ok {
		d := n.Depth
		detail.Depth = &d
		detail.Incoming, detail.Outgoing = n.Incoming, n.Outgoing
	}
	for _, l := range res.Graph.Links() {
		if l.Source != abs {
			continue
		}
		detail.Links = append(detail.Links, linkDetail(res, l))
	}
	seen := make(map[string]bool)
	for _, l := range res.Graph.Backlinks(abs) {
		src := res.Store.Rel(l.Source)
		if !seen[src] {
			seen[src] = true
			detail.Backlinks = append(detail.Backlinks, src)
		}
	}
	for _, d := range res.Report.Diagnostics {
		if d.File == detail.Path {
			detail.Diagnostics = append(detail.Diagnostics, d)
		}
	}
	return detail, nil
}

func linkDetail(res *engine.Result, l models.LinkRef) LinkDetail {
	d := LinkDetail{
		Raw:      l.Raw,
		Kind:     string(l.Kind),
		Line:     l.Line,
		Column:   l.Column,
		External: l.External,
		Fragment: l.Fragment,
	}
	if l.Target != "" {
		d.Target = res.Store.Rel(l.Target)
	}
	return d
}

// Search runs a full-text query against the exported index.
func (s *Service) Search(q string, limit int) ([]SearchResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("search: %w: no index configured", apperr.ErrNotFound)
	}
	hits, err := s.db.Search(strings.TrimSpace(q), limit)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchResult{Path: h.Path, Title: h.Title, Snippet: h.Snippet})
	}
	return out, nil
}
