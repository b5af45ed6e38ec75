// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/docgraph/internal/api"
	"github.com/starford/docgraph/internal/engine"
	"github.com/starford/docgraph/internal/index"
	"github.com/starford/docgraph/internal/sse"
)

// Run starts the HTTP server: an initial lint, a watcher that re-lints on
// change, the JSON API and the SSE stream.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("root", cfg.Lint.Root),
		slog.String("depth", cfg.Lint.Depth.String()),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	eng := engine.New(cfg.Lint.EngineOptions(), logger)

	// Optional SQLite export, refreshed after every run.
	var db *index.DB
	if cfg.Index.Path != "" {
		var err error
		db, err = index.Open(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	var reader index.Reader
	if db != nil {
		reader = db
	}
	svc := api.NewService(eng, reader)

	publish := func(res *engine.Result, err error) {
		svc.Update(res, err)
		if err != nil {
			logger.Error("lint failed", slog.String("error", err.Error()))
			broker.PublishLintError(err)
			return
		}
		if db != nil {
			if err := db.Replace(snapshot(res)); err != nil {
				logger.Error("index export failed", slog.String("error", err.Error()))
			}
		}
		broker.PublishLint(sse.LintSummary{
			Documents:  res.Graph.Len(),
			Errors:     res.Report.Errors,
			Warnings:   res.Report.Warnings,
			ExitCode:   res.Report.ExitCode(),
			DurationMS: res.Duration.Milliseconds(),
		})
	}

	// Initial run. A configuration error here means nothing can be served.
	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	publish(res, nil)

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Current(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Re-lint on change and push the result to SSE clients.
	g.Go(func() error {
		if err := eng.Watch(gCtx, engine.DefaultDebounce, publish); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		cancel()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func snapshot(res *engine.Result) index.Snapshot {
	return index.Snapshot{
		Root:   res.Store.Root(),
		Graph:  res.Graph,
		Report: res.Report,
		Rel:    res.Store.Rel,
	}
}
