// Package validate turns a completed graph into diagnostics: orphaned
// files, dead links, dead anchors and unreadable documents. Diagnostics
// carry no severity; that is resolved later from configuration.
package validate

import (
	"fmt"

	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/storage"
)

// Filter is the exclusion view the orphan detector needs.
type Filter interface {
	Eligible(abs string) bool
	SkipDir(rel string) bool
}

// All runs every check over g.
func All(g *graph.Graph, store storage.Provider, filter Filter) ([]models.Diagnostic, error) {
	orphans, err := Orphans(g, store, filter)
	if err != nil {
		return nil, err
	}
	out := ReadErrors(g, store)
	out = append(out, Links(g, store)...)
	return append(out, orphans...), nil
}

// Orphans reports every eligible on-disk document that is not in g.
func Orphans(g *graph.Graph, store storage.Provider, filter Filter) ([]models.Diagnostic, error) {
	var skip storage.SkipFunc
	if filter != nil {
		skip = filter.SkipDir
	}
	metas, err := store.List(skip)
	if err != nil {
		return nil, fmt.Errorf("validate: list documents: %w", err)
	}

	var out []models.Diagnostic
	for _, m := range metas {
		if g.Has(m.Path) {
			continue
		}
		if filter != nil && !filter.Eligible(m.Path) {
			continue
		}
		out = append(out, models.Diagnostic{
			Kind:    models.KindOrphanFile,
			Rule:    models.RuleOrphanFiles,
			File:    m.RelPath,
			Message: orphanMessage(g),
		})
	}
	return out, nil
}

func orphanMessage(g *graph.Graph) string {
	if g.DepthBound == graph.Unbounded {
		return "file is not reachable from any entrypoint"
	}
	return fmt.Sprintf("file is not reachable from any entrypoint within depth %d", g.DepthBound)
}

// Links checks every non-external link recorded during traversal. The
// check does not depend on graph membership: targets outside the graph are
// stat'ed and, for fragment links, parsed on demand.
func Links(g *graph.Graph, store storage.Provider) []models.Diagnostic {
	var out []models.Diagnostic
	for _, ref := range g.Links() {
		if ref.External {
			continue
		}
		if d, ok := checkLink(g, store, ref); ok {
			out = append(out, d)
		}
	}
	return out
}

func checkLink(g *graph.Graph, store storage.Provider, ref models.LinkRef) (models.Diagnostic, bool) {
	d := models.Diagnostic{
		File:   store.Rel(ref.Source),
		Line:   ref.Line,
		Column: ref.Column,
	}
	if ref.Error != "" {
		d.Kind, d.Rule = models.KindDeadLink, models.RuleDeadLink
		d.Message = fmt.Sprintf("cannot resolve link %q: %s", ref.Raw, ref.Error)
		return d, true
	}

	target := store.Rel(ref.Target)
	info, err := store.Stat(ref.Target)
	if err != nil {
		d.Kind, d.Rule = models.KindDeadLink, models.RuleDeadLink
		d.Target = target
		d.Message = fmt.Sprintf("link target %s does not exist", target)
		return d, true
	}
	if !ref.HasFragment() || info.IsDir() || !storage.IsDocument(store, ref.Target) {
		return d, false
	}

	doc, err := g.Document(ref.Target)
	d.Kind, d.Rule = models.KindDeadAnchor, models.RuleDeadAnchor
	d.Target = target
	d.Anchor = ref.Fragment
	if err != nil {
		d.Message = fmt.Sprintf("cannot check anchor #%s: %v", ref.Fragment, err)
		return d, true
	}
	if doc.HasAnchor(ref.Fragment) {
		return d, false
	}
	if ref.Target == ref.Source {
		d.Message = fmt.Sprintf("anchor #%s not found in this document", ref.Fragment)
	} else {
		d.Message = fmt.Sprintf("anchor #%s not found in %s", ref.Fragment, target)
	}
	return d, true
}

// ReadErrors reports frontier documents that could not be loaded.
func ReadErrors(g *graph.Graph, store storage.Provider) []models.Diagnostic {
	var out []models.Diagnostic
	for _, f := range g.Failures() {
		out = append(out, models.Diagnostic{
			Kind:    models.KindReadError,
			Rule:    models.RuleReadError,
			File:    store.Rel(f.Path),
			Message: fmt.Sprintf("cannot read document: %v", f.Err),
		})
	}
	return out
}
