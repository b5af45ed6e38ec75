// Package engine wires the lint pipeline: storage, exclusion rules, graph
// traversal, validation and diagnostics aggregation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/ignore"
	"github.com/starford/docgraph/internal/storage"
	"github.com/starford/docgraph/internal/validate"
)

// Options holds everything a lint run needs.
type Options struct {
	Root      string
	Extension string
	// Entrypoints are relative to Root (absolute paths inside Root are
	// accepted too).
	Entrypoints []string
	// Depth is the traversal bound; graph.Unbounded disables it.
	Depth int
	// Exclude comes from the project config, CLIExclude from the command
	// line and takes precedence.
	Exclude           []string
	CLIExclude        []string
	RespectIgnoreFile bool
	IgnoreFiles       []string
	Rules             diagnostics.Rules
	Concurrency       int
}

// Result is the outcome of one run.
type Result struct {
	Store    *storage.FS
	Filter   *ignore.Filter
	Graph    *graph.Graph
	Report   diagnostics.Report
	Duration time.Duration
}

// Engine runs lint passes with fixed options.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// New returns an Engine.
func New(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the options the engine was built with.
func (e *Engine) Options() Options { return e.opts }

// Run performs a full lint pass. Errors wrapping apperr.ErrConfiguration
// mean the run never started; findings are reported in Result.Report.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	store, err := storage.NewFS(e.opts.Root, e.opts.Extension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	rules, err := e.rules(store.Root())
	if err != nil {
		return nil, err
	}
	filter := ignore.NewFilter(store.Root(), rules)

	entrypoints, err := e.entrypoints(store)
	if err != nil {
		return nil, err
	}

	g, err := graph.NewBuilder(store, filter, nil, e.logger).Build(ctx, graph.Options{
		Entrypoints: entrypoints,
		Depth:       e.opts.Depth,
		Concurrency: e.opts.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	diags, err := validate.All(g, store, filter)
	if err != nil {
		return nil, err
	}
	ruleSeverities := e.opts.Rules
	if ruleSeverities == nil {
		ruleSeverities = diagnostics.DefaultRules()
	}
	rep := diagnostics.Aggregate(diags, ruleSeverities)

	res := &Result{
		Store:    store,
		Filter:   filter,
		Graph:    g,
		Report:   rep,
		Duration: time.Since(start),
	}
	e.logger.Info("lint: done",
		slog.String("root", store.Root()),
		slog.Int("documents", g.Len()),
		slog.Int("links", len(g.Links())),
		slog.Int("errors", rep.Errors),
		slog.Int("warnings", rep.Warnings),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (e *Engine) rules(root string) (*ignore.RuleSet, error) {
	rs := ignore.NewRuleSet()
	if e.opts.RespectIgnoreFile {
		for _, name := range e.opts.IgnoreFiles {
			patterns, err := ignore.LoadFile(filepath.Join(root, name))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
			}
			if err := rs.Add(ignore.SourceIgnoreFile, patterns...); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if len(patterns) > 0 {
				e.logger.Debug("lint: ignore file loaded",
					slog.String("file", name),
					slog.Int("patterns", len(patterns)))
			}
		}
	}
	if err := rs.Add(ignore.SourceConfig, e.opts.Exclude...); err != nil {
		return nil, err
	}
	if err := rs.Add(ignore.SourceCLI, e.opts.CLIExclude...); err != nil {
		return nil, err
	}
	return rs, nil
}

func (e *Engine) entrypoints(store *storage.FS) ([]string, error) {
	if len(e.opts.Entrypoints) == 0 {
		return nil, fmt.Errorf("%w: no entrypoints configured", apperr.ErrConfiguration)
	}
	out := make([]string, 0, len(e.opts.Entrypoints))
	for _, ep := range e.opts.Entrypoints {
		rel := ep
		if filepath.IsAbs(ep) {
			rel = store.Rel(ep)
		}
		abs, err := store.Resolve(rel)
		if err != nil {
			return nil, fmt.Errorf("%w: entrypoint %s: %v", apperr.ErrConfiguration, ep, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
