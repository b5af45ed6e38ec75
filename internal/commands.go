package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/docgraph/internal/api"
	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/engine"
	"github.com/starford/docgraph/internal/index"
	"github.com/starford/docgraph/internal/mcpserver"
	"github.com/starford/docgraph/internal/query"
	"github.com/starford/docgraph/internal/report"
)

// setup validates the options, installs the stderr logger and runs one lint
// pass.
func setup(ctx context.Context, opts []Option) (*application, *engine.Engine, *engine.Result, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}
	logger := slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	eng := engine.New(app.config.Lint.EngineOptions(), logger)
	res, err := eng.Run(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, eng, res, nil
}

// Lint runs one pass and writes the diagnostics report. The returned code
// is diagnostics.ExitOK or diagnostics.ExitFindings.
func Lint(ctx context.Context, opts ...Option) (int, error) {
	app, _, res, err := setup(ctx, opts)
	if err != nil {
		return diagnostics.ExitConfiguration, err
	}
	if app.format == report.FormatJSON {
		err = report.WriteJSON(app.stdout, res.Report)
	} else {
		err = report.WriteLint(app.stdout, res.Report, app.color.Enabled(app.stdout))
	}
	if err != nil {
		return diagnostics.ExitConfiguration, fmt.Errorf("write report: %w", err)
	}
	return res.Report.ExitCode(), nil
}

// Files lists the reachable documents, optionally filtered by front-matter.
func Files(ctx context.Context, opts ...Option) error {
	app, _, res, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	expr, err := query.Parse(app.query)
	if err != nil {
		return err
	}
	nodes := query.Filter(res.Graph.Nodes(), expr)
	report.Sort(nodes, app.sortBy)
	if app.format == report.FormatJSON {
		return report.WriteJSON(app.stdout, report.Entries(nodes))
	}
	return report.WriteFiles(app.stdout, nodes, app.long)
}

// Query lists the reachable documents matching expr.
func Query(ctx context.Context, expr string, opts ...Option) error {
	if expr == "" {
		return fmt.Errorf("%w: query expression is required", apperr.ErrConfiguration)
	}
	return Files(ctx, append(opts, WithQuery(expr))...)
}

// Cat concatenates the reachable documents.
func Cat(ctx context.Context, opts ...Option) error {
	app, _, res, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	return report.WriteCat(app.stdout, res.Graph, app.order)
}

// Export writes one lint snapshot to the SQLite index at cfg.Index.Path.
func Export(ctx context.Context, opts ...Option) (int, error) {
	if cfg := newApplication(opts).config; cfg != nil && cfg.Index.Path == "" {
		return diagnostics.ExitConfiguration, fmt.Errorf("%w: index.path is required for export", apperr.ErrConfiguration)
	}
	app, _, res, err := setup(ctx, opts)
	if err != nil {
		return diagnostics.ExitConfiguration, err
	}

	db, err := index.Open(app.config.Index.Path)
	if err != nil {
		return diagnostics.ExitConfiguration, fmt.Errorf("open index: %w", err)
	}
	defer db.Close()

	if err := db.Replace(snapshot(res)); err != nil {
		return diagnostics.ExitConfiguration, err
	}
	slog.Info("export: done",
		slog.String("path", app.config.Index.Path),
		slog.Int("documents", res.Graph.Len()),
		slog.Int("diagnostics", len(res.Report.Diagnostics)))
	fmt.Fprintf(app.stdout, "exported %d documents to %s\n", res.Graph.Len(), app.config.Index.Path)
	return res.Report.ExitCode(), nil
}

// ServeMCP runs the MCP server over stdio until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, eng, res, err := setup(ctx, opts)
	if err != nil {
		return err
	}

	var reader index.Reader
	if path := app.config.Index.Path; path != "" {
		db, err := index.Open(path)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer db.Close()
		if err := db.Replace(snapshot(res)); err != nil {
			return err
		}
		reader = db
	}

	svc := api.NewService(eng, reader)
	svc.Update(res, nil)
	return mcpserver.New(svc, app.version).ServeStdio()
}
