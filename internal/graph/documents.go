package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/docgraph/internal/checksum"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/parser"
	"github.com/starford/docgraph/internal/storage"
)

// Loader reads and parses documents, caching each result for the lifetime
// of a run. It is safe for concurrent use.
type Loader struct {
	store  storage.Provider
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]loaded
}

type loaded struct {
	doc *models.Document
	err error
}

// NewLoader returns a Loader reading through store.
func NewLoader(store storage.Provider, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, logger: logger, cache: make(map[string]loaded)}
}

// Load returns the parsed document at the absolute path p. Failures are
// cached too, so a broken file is only read once.
func (l *Loader) Load(p string) (*models.Document, error) {
	l.mu.Lock()
	if c, ok := l.cache[p]; ok {
		l.mu.Unlock()
		return c.doc, c.err
	}
	l.mu.Unlock()

	doc, err := l.parse(p)

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.cache[p]; ok {
		return c.doc, c.err
	}
	l.cache[p] = loaded{doc: doc, err: err}
	return doc, err
}

// Cached returns the document for p only if it has already been loaded.
func (l *Loader) Cached(p string) (*models.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cache[p]
	if !ok || c.err != nil {
		return nil, false
	}
	return c.doc, true
}

func (l *Loader) parse(p string) (*models.Document, error) {
	data, err := l.store.Read(p)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		if errors.Is(err, parser.ErrBinary) {
			return nil, fmt.Errorf("graph: %s: %w", l.store.Rel(p), err)
		}
		return nil, err
	}

	doc := &models.Document{
		Path:        p,
		Content:     data,
		Checksum:    checksum.Sum(data),
		Title:       res.Title,
		Frontmatter: res.Frontmatter,
		Links:       res.Links,
		Headings:    res.Headings,
		Anchors:     res.Anchors,
	}
	for _, w := range res.Warnings {
		doc.Warnings = append(doc.Warnings, w.String())
		l.logger.Warn("parser: warning",
			slog.String("path", l.store.Rel(p)),
			slog.Int("line", w.Line),
			slog.String("message", w.Message))
	}
	return doc, nil
}
