package internal

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/engine"
	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/ignore"
	"github.com/starford/docgraph/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DefaultConfigFile is looked up in the working directory when no config
// file is named explicitly.
const DefaultConfigFile = ".docgraph.yaml"

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Lint  LintConfig        `yaml:"lint"`
	Index IndexConfig       `yaml:"index"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration. Every failure wraps
// apperr.ErrConfiguration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Lint, &c.Auth} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Depth is a traversal bound: a non-negative hop count or unbounded.
type Depth int

// DepthUnbounded disables the traversal bound.
const DepthUnbounded Depth = graph.Unbounded

// ParseDepth accepts a non-negative integer or "unbounded".
func ParseDepth(s string) (Depth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unbounded", "infinite", "inf":
		return DepthUnbounded, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid depth %q (want a non-negative integer or \"unbounded\")", apperr.ErrConfiguration, s)
	}
	return Depth(n), nil
}

func (d Depth) String() string {
	if d < 0 {
		return "unbounded"
	}
	return strconv.Itoa(int(d))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Depth) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDepth(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Depth) MarshalYAML() (any, error) {
	if d < 0 {
		return "unbounded", nil
	}
	return int(d), nil
}

// LintConfig describes what to lint and how findings are rated.
type LintConfig struct {
	Root              string                     `yaml:"root"`
	Entrypoints       []string                   `yaml:"entrypoints"`
	Extension         string                     `yaml:"extension"`
	Depth             Depth                      `yaml:"depth"`
	Exclude           []string                   `yaml:"exclude"`
	RespectIgnoreFile bool                       `yaml:"respectIgnoreFile"`
	IgnoreFiles       []string                   `yaml:"ignoreFiles"`
	Rules             map[string]models.Severity `yaml:"rules"`
	Concurrency       int                        `yaml:"concurrency"`

	// CLIExclude is filled from command-line flags only.
	CLIExclude []string `yaml:"-"`
}

var knownRules = []any{models.RuleOrphanFiles, models.RuleDeadLink, models.RuleDeadAnchor}

// Validate validates the lint configuration.
func (c *LintConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Entrypoints, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Extension, validation.Required),
		validation.Field(&c.Depth, validation.Min(DepthUnbounded)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(256)),
	); err != nil {
		return err
	}
	for rule := range c.Rules {
		if err := validation.Validate(rule, validation.In(knownRules...)); err != nil {
			return fmt.Errorf("rules: unknown rule %q", rule)
		}
	}
	for _, list := range [][]string{c.Exclude, c.CLIExclude} {
		if err := ignore.NewRuleSet().Add(ignore.SourceConfig, list...); err != nil {
			return fmt.Errorf("exclude: %v", err)
		}
	}
	return nil
}

// EngineOptions converts the configuration into engine options.
func (c *LintConfig) EngineOptions() engine.Options {
	rules := diagnostics.DefaultRules()
	for k, v := range c.Rules {
		rules[k] = v
	}
	return engine.Options{
		Root:              c.Root,
		Extension:         c.Extension,
		Entrypoints:       c.Entrypoints,
		Depth:             int(c.Depth),
		Exclude:           c.Exclude,
		CLIExclude:        c.CLIExclude,
		RespectIgnoreFile: c.RespectIgnoreFile,
		IgnoreFiles:       c.IgnoreFiles,
		Rules:             rules,
		Concurrency:       c.Concurrency,
	}
}

// IndexConfig holds the optional SQLite export target.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// Overrides are command-line values applied on top of the loaded file.
// Zero values leave the file's setting untouched.
type Overrides struct {
	Root         string
	Entrypoints  []string
	Depth        string
	Exclude      []string
	NoIgnoreFile bool
	LogLevel     string
	Port         int
	IndexPath    string
}

// Apply merges o into c.
func (c *Config) Apply(o Overrides) error {
	if o.Root != "" {
		c.Lint.Root = o.Root
	}
	if len(o.Entrypoints) > 0 {
		c.Lint.Entrypoints = o.Entrypoints
	}
	if o.Depth != "" {
		d, err := ParseDepth(o.Depth)
		if err != nil {
			return err
		}
		c.Lint.Depth = d
	}
	c.Lint.CLIExclude = append(c.Lint.CLIExclude, o.Exclude...)
	if o.NoIgnoreFile {
		c.Lint.RespectIgnoreFile = false
	}
	if o.LogLevel != "" {
		if err := c.App.LogLevel.UnmarshalText([]byte(o.LogLevel)); err != nil {
			return fmt.Errorf("%w: log level: %v", apperr.ErrConfiguration, err)
		}
	}
	if o.Port != 0 {
		c.App.HTTP.Port = o.Port
	}
	if o.IndexPath != "" {
		c.Index.Path = o.IndexPath
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelWarn,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Lint: LintConfig{
			Root:              ".",
			Entrypoints:       []string{"README.md"},
			Extension:         ".md",
			Depth:             DepthUnbounded,
			RespectIgnoreFile: true,
			IgnoreFiles:       []string{".gitignore", ".docgraphignore"},
			Rules: map[string]models.Severity{
				models.RuleOrphanFiles: models.SeverityError,
				models.RuleDeadLink:    models.SeverityError,
				models.RuleDeadAnchor:  models.SeverityError,
			},
			Concurrency: graph.DefaultConcurrency,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
