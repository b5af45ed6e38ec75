package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docgraph/internal"
	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/report"
	pkgconfig "github.com/starford/docgraph/pkg/config"
)

var version = "dev"

// errFindings signals exit status 1 without printing anything further.
var errFindings = errors.New("findings reported")

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	read := true
	var err error
	if cmd.IsSet("config") {
		err = pkgconfig.Load(path, cfg)
	} else {
		read, err = pkgconfig.LoadOptional(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	// A relative root in a config file is relative to that file.
	if read && !filepath.IsAbs(cfg.Lint.Root) {
		cfg.Lint.Root = filepath.Join(filepath.Dir(path), cfg.Lint.Root)
	}

	if err := cfg.Apply(internal.Overrides{
		Root:         cmd.String("root"),
		Entrypoints:  cmd.StringSlice("entrypoint"),
		Depth:        cmd.String("depth"),
		Exclude:      cmd.StringSlice("exclude"),
		NoIgnoreFile: cmd.Bool("no-ignore-file"),
		LogLevel:     cmd.String("log-level"),
		Port:         int(cmd.Int("port")),
		IndexPath:    cmd.String("output"),
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// options translates the output flags shared by the report commands.
func options(cmd *cli.Command, cfg *internal.Config) ([]internal.Option, error) {
	format, err := report.ParseFormat(cmd.String("format"))
	if err != nil {
		return nil, err
	}
	colorMode, err := report.ParseColorMode(cmd.String("color"))
	if err != nil {
		return nil, err
	}
	sortBy, err := report.ParseSortBy(cmd.String("sort"))
	if err != nil {
		return nil, err
	}
	order, err := report.ParseCatOrder(cmd.String("order"))
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithFormat(format),
		internal.WithColor(colorMode),
		internal.WithSort(sortBy),
		internal.WithCatOrder(order),
		internal.WithQuery(cmd.String("query")),
		internal.WithLong(cmd.Bool("long")),
	}, nil
}

// action loads the configuration and hands the options to fn.
func action(fn func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts, err := options(cmd, cfg)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, opts)
	}
}

func exitStatus(code int, err error) error {
	if err != nil {
		return err
	}
	if code == diagnostics.ExitFindings {
		return errFindings
	}
	return nil
}

func lint(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	return exitStatus(internal.Lint(ctx, opts...))
}

func files(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	return internal.Files(ctx, opts...)
}

func query(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
	return internal.Query(ctx, cmd.Args().First(), opts...)
}

func cat(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	return internal.Cat(ctx, opts...)
}

func export(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	return exitStatus(internal.Export(ctx, opts...))
}

func serve(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	return internal.ServeMCP(ctx, opts...)
}

// usageError turns flag parsing failures into configuration errors.
func usageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
}

func newCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "docgraph",
		Usage:   "Check that every document in a Markdown tree is reachable and every link resolves",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: internal.DefaultConfigFile,
				Value:       internal.DefaultConfigFile,
				Sources:     cli.EnvVars("DOCGRAPH_CONFIG"),
			},
			&cli.StringFlag{Name: "root", Usage: "Project root (overrides lint.root)"},
			&cli.StringSliceFlag{Name: "entrypoint", Aliases: []string{"e"}, Usage: "Entrypoint document, relative to the root (repeatable)"},
			&cli.StringFlag{Name: "depth", Usage: "Maximum link depth, or \"unbounded\""},
			&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Gitignore-style exclusion pattern (repeatable, takes precedence over config)"},
			&cli.BoolFlag{Name: "no-ignore-file", Usage: "Do not read .gitignore and .docgraphignore"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("DOCGRAPH_LOG_LEVEL")},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: text or json", Value: string(report.FormatText)},
		},
		Commands: []*cli.Command{
			{
				Name:   "lint",
				Usage:  "Report orphaned documents, dead links and dead anchors",
				Action: action(lint),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Usage: "Colour output: auto, always or never", Value: string(report.ColorAuto)},
				},
			},
			{
				Name:   "files",
				Usage:  "List documents reachable from the entrypoints",
				Action: action(files),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sort", Usage: "Sort by path or depth", Value: string(report.SortByPath)},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Front-matter filter, e.g. status=done,!draft"},
					&cli.BoolFlag{Name: "long", Aliases: []string{"l"}, Usage: "Show depth and link counts"},
				},
			},
			{
				Name:      "query",
				Usage:     "List reachable documents whose front-matter matches an expression",
				ArgsUsage: "<expression>",
				Action:    action(query),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sort", Usage: "Sort by path or depth", Value: string(report.SortByPath)},
				},
			},
			{
				Name:   "cat",
				Usage:  "Concatenate reachable documents",
				Action: action(cat),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "order", Usage: "dependency or alphabetical", Value: string(report.CatDependency)},
				},
			},
			{
				Name:   "export",
				Usage:  "Write a lint snapshot to a SQLite database",
				Action: action(export),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Database path (overrides index.path)"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the graph and diagnostics over HTTP, re-linting on change",
				Action: action(serve),
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "HTTP port (overrides app.http.port)"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run an MCP server over stdio",
				Action: action(mcp),
			},
		},
	}

	cmd.OnUsageError = usageError
	for _, sub := range cmd.Commands {
		sub.OnUsageError = usageError
	}
	// Exit codes are decided by exitCode, never inside the library.
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return cmd
}

// run executes cmd with args and returns the process exit status.
func run(ctx context.Context, cmd *cli.Command, args []string) int {
	var unknown string
	cmd.CommandNotFound = func(_ context.Context, _ *cli.Command, name string) {
		unknown = name
	}
	err := cmd.Run(ctx, args)
	if err == nil && unknown != "" {
		err = fmt.Errorf("%w: unknown command %q", apperr.ErrConfiguration, unknown)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	switch {
	case err == nil:
		return diagnostics.ExitOK
	case errors.Is(err, errFindings):
		return diagnostics.ExitFindings
	case errors.Is(err, apperr.ErrConfiguration):
		fmt.Fprintln(os.Stderr, "docgraph:", err)
		return diagnostics.ExitConfiguration
	case errors.As(err, &coder):
		fmt.Fprintln(os.Stderr, "docgraph:", err)
		return coder.ExitCode()
	default:
		slog.Error("application error", slog.String("error", err.Error()))
		return 1
	}
}

func main() {
	os.Exit(run(context.Background(), newCommand(), os.Args))
}
