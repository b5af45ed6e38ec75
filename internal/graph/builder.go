package graph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/resolve"
	"github.com/starford/docgraph/internal/storage"
)

// DefaultConcurrency bounds parallel reads within one frontier level.
const DefaultConcurrency = 8

// Filter decides whether a discovered document may join the graph.
type Filter interface {
	Eligible(abs string) bool
}

// Options configures a single traversal.
type Options struct {
	// Entrypoints are absolute paths; duplicates are ignored.
	Entrypoints []string
	// Depth is the maximum hop count; Unbounded (or any negative value)
	// disables the limit.
	Depth       int
	Concurrency int
}

// Builder runs breadth-first traversals over a store.
type Builder struct {
	store    storage.Provider
	resolver *resolve.Resolver
	filter   Filter
	loader   *Loader
	logger   *slog.Logger
}

// NewBuilder returns a Builder. A nil filter admits every document.
func NewBuilder(store storage.Provider, filter Filter, loader *Loader, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if loader == nil {
		loader = NewLoader(store, logger)
	}
	return &Builder{
		store:    store,
		resolver: resolve.New(store),
		filter:   filter,
		loader:   loader,
		logger:   logger,
	}
}

// Loader returns the document cache shared with the built graphs.
func (b *Builder) Loader() *Loader { return b.loader }

// visit is the buffered outcome of loading one frontier node.
type visit struct {
	doc  *models.Document
	refs []models.LinkRef
	// docs marks resolved targets that exist as regular document files.
	docs map[string]bool
	err  error
}

// Build traverses from opts.Entrypoints. A missing or non-document
// entrypoint is a configuration error; read failures on reached nodes are
// recorded on the graph and do not stop the walk.
func (b *Builder) Build(ctx context.Context, opts Options) (*Graph, error) {
	depthBound := opts.Depth
	if depthBound < 0 {
		depthBound = Unbounded
	}
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}

	g := newGraph(b.store.Root(), depthBound, b.loader)

	var frontier []string
	for _, ep := range opts.Entrypoints {
		if g.Has(ep) {
			continue
		}
		if err := b.checkEntrypoint(ep); err != nil {
			return nil, err
		}
		n := g.add(ep, b.store.Rel(ep), 0)
		n.Entrypoint = true
		g.Entrypoints = append(g.Entrypoints, ep)
		frontier = append(frontier, ep)
	}
	if len(frontier) == 0 {
		return nil, fmt.Errorf("%w: no entrypoints", apperr.ErrConfiguration)
	}

	for depth := 0; len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		visits, err := b.prefetch(ctx, frontier, conc)
		if err != nil {
			return nil, err
		}

		var next []string
		for i, p := range frontier {
			next = b.replay(g, g.nodes[p], visits[i], depth, next)
		}
		b.logger.Debug("graph: level done",
			slog.Int("depth", depth),
			slog.Int("visited", len(frontier)),
			slog.Int("discovered", len(next)))
		frontier = next
	}

	b.logger.Debug("graph: built",
		slog.Int("nodes", g.Len()),
		slog.Int("links", len(g.links)),
		slog.Int("failures", len(g.failures)))
	return g, nil
}

func (b *Builder) checkEntrypoint(ep string) error {
	info, err := b.store.Stat(ep)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: entrypoint %s does not exist", apperr.ErrConfiguration, b.store.Rel(ep))
		}
		return fmt.Errorf("%w: entrypoint %s: %v", apperr.ErrConfiguration, b.store.Rel(ep), err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: entrypoint %s is a directory", apperr.ErrConfiguration, b.store.Rel(ep))
	}
	return nil
}

// prefetch loads and resolves every frontier node, at most conc at a time.
// visits[i] belongs to frontier[i].
func (b *Builder) prefetch(ctx context.Context, frontier []string, conc int) ([]visit, error) {
	visits := make([]visit, len(frontier))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(conc)
	for i, p := range frontier {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			visits[i] = b.load(p)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return visits, nil
}

func (b *Builder) load(p string) visit {
	doc, err := b.loader.Load(p)
	if err != nil {
		return visit{err: err}
	}
	v := visit{doc: doc, docs: make(map[string]bool)}
	for _, l := range doc.Links {
		ref := b.Resolve(p, l)
		v.refs = append(v.refs, ref)
		if ref.Target == "" || ref.Target == p {
			continue
		}
		if _, seen := v.docs[ref.Target]; seen {
			continue
		}
		v.docs[ref.Target] = b.isDocumentFile(ref.Target)
	}
	return v
}

// Resolve turns a parsed link of source into a LinkRef.
func (b *Builder) Resolve(source string, l models.Link) models.LinkRef {
	ref := models.LinkRef{
		Source: source,
		Raw:    l.Raw,
		Kind:   l.Kind,
		Line:   l.Line,
		Column: l.Column,
	}
	res, err := b.resolver.Resolve(source, l.Raw)
	if err != nil {
		ref.Error = err.Error()
		return ref
	}
	ref.External = res.External
	ref.Target = res.Path
	ref.Fragment = res.Fragment
	return ref
}

func (b *Builder) isDocumentFile(p string) bool {
	if !storage.IsDocument(b.store, p) {
		return false
	}
	info, err := b.store.Stat(p)
	return err == nil && !info.IsDir()
}

// replay applies one visit to the graph in frontier order and returns the
// extended next frontier.
func (b *Builder) replay(g *Graph, n *Node, v visit, depth int, next []string) []string {
	if v.err != nil {
		g.failures = append(g.failures, ReadFailure{Path: n.Path, Err: v.err})
		b.logger.Warn("graph: read failed",
			slog.String("path", n.RelPath),
			slog.String("error", v.err.Error()))
		return next
	}
	n.Document = v.doc
	g.links = append(g.links, v.refs...)

	linked := make(map[string]bool)
	for _, ref := range v.refs {
		t := ref.Target
		if t == "" || t == n.Path || linked[t] || !v.docs[t] {
			continue
		}
		linked[t] = true

		if target, ok := g.nodes[t]; ok {
			target.Incoming++
			n.Outgoing++
			continue
		}
		if g.DepthBound != Unbounded && depth >= g.DepthBound {
			continue
		}
		if b.filter != nil && !b.filter.Eligible(t) {
			continue
		}
		target := g.add(t, b.store.Rel(t), depth+1)
		target.Incoming = 1
		n.Outgoing++
		next = append(next, t)
	}
	return next
}
