package internal

import (
	"io"
	"os"

	"github.com/starford/docgraph/internal/report"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	stdout  io.Writer
	stderr  io.Writer

	format report.Format
	color  report.ColorMode
	sortBy report.SortBy
	query  string
	order  report.CatOrder
	long   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithOutput redirects reports (stdout) and CLI logs (stderr).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *application) {
		a.stdout, a.stderr = stdout, stderr
	}
}

// WithFormat selects text or JSON output.
func WithFormat(f report.Format) Option {
	return func(a *application) {
		a.format = f
	}
}

// WithColor sets the colour mode of text reports.
func WithColor(m report.ColorMode) Option {
	return func(a *application) {
		a.color = m
	}
}

// WithSort sets the order of file listings.
func WithSort(by report.SortBy) Option {
	return func(a *application) {
		a.sortBy = by
	}
}

// WithQuery filters file listings by a front-matter expression.
func WithQuery(expr string) Option {
	return func(a *application) {
		a.query = expr
	}
}

// WithCatOrder sets the concatenation order of the cat command.
func WithCatOrder(o report.CatOrder) Option {
	return func(a *application) {
		a.order = o
	}
}

// WithLong prints depth and link counts in file listings.
func WithLong(long bool) Option {
	return func(a *application) {
		a.long = long
	}
}

func newApplication(opts []Option) *application {
	a := &application{
		version: "dev",
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		format:  report.FormatText,
		color:   report.ColorAuto,
		sortBy:  report.SortByPath,
		order:   report.CatDependency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
