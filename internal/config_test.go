package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/models"
	pkgconfig "github.com/starford/docgraph/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Lint.Depth != DepthUnbounded {
		t.Errorf("depth = %v, want unbounded", cfg.Lint.Depth)
	}
}

func TestConfig_ValidateWrapsConfigurationError(t *testing.T) {
	cases := map[string]func(*Config){
		"no entrypoints": func(c *Config) { c.Lint.Entrypoints = nil },
		"blank entry":    func(c *Config) { c.Lint.Entrypoints = []string{""} },
		"negative depth": func(c *Config) { c.Lint.Depth = -5 },
		"unknown rule":   func(c *Config) { c.Lint.Rules["style"] = models.SeverityWarn },
		"bad exclude":    func(c *Config) { c.Lint.Exclude = []string{"a/[b"} },
		"bad cli":        func(c *Config) { c.Lint.CLIExclude = []string{"!"} },
		"zero workers":   func(c *Config) { c.Lint.Concurrency = 0 },
		"auth token":     func(c *Config) { c.Auth.Mode = AuthModeToken },
		"port":           func(c *Config) { c.App.HTTP.Port = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, apperr.ErrConfiguration) {
				t.Fatalf("err = %v, want configuration error", err)
			}
		})
	}
}

func TestParseDepth(t *testing.T) {
	cases := map[string]Depth{"0": 0, "3": 3, "unbounded": DepthUnbounded, "": DepthUnbounded, " 2 ": 2}
	for in, want := range cases {
		got, err := ParseDepth(in)
		if err != nil {
			t.Fatalf("ParseDepth(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDepth(%q) = %v, want %v", in, got, want)
		}
	}
	for _, in := range []string{"-1", "deep", "1.5"} {
		if _, err := ParseDepth(in); !errors.Is(err, apperr.ErrConfiguration) {
			t.Errorf("ParseDepth(%q) err = %v", in, err)
		}
	}
}

func TestDepth_YAML(t *testing.T) {
	var v struct {
		Depth Depth `yaml:"depth"`
	}
	if err := yaml.Unmarshal([]byte("depth: 2\n"), &v); err != nil || v.Depth != 2 {
		t.Fatalf("depth=%v err=%v", v.Depth, err)
	}
	if err := yaml.Unmarshal([]byte("depth: unbounded\n"), &v); err != nil || v.Depth != DepthUnbounded {
		t.Fatalf("depth=%v err=%v", v.Depth, err)
	}
	if err := yaml.Unmarshal([]byte("depth: lots\n"), &v); err == nil {
		t.Fatal("expected error")
	}

	out, err := yaml.Marshal(struct {
		Depth Depth `yaml:"depth"`
	}{DepthUnbounded})
	if err != nil || string(out) != "depth: unbounded\n" {
		t.Errorf("marshal = %q, %v", out, err)
	}
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".docgraph.yaml")
	content := `lint:
  entrypoints: [docs/index.md, README.md]
  depth: 3
  exclude: ["drafts/**", "!drafts/important.md"]
  rules:
    dead-anchor: warn
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(p, cfg); err != nil {
		t.Fatal(err)
	}

	if len(cfg.Lint.Entrypoints) != 2 || cfg.Lint.Depth != 3 {
		t.Errorf("lint = %+v", cfg.Lint)
	}
	if cfg.Lint.Rules[models.RuleDeadAnchor] != models.SeverityWarn {
		t.Errorf("dead-anchor = %q", cfg.Lint.Rules[models.RuleDeadAnchor])
	}
	if cfg.Lint.Rules[models.RuleDeadLink] != models.SeverityError {
		t.Error("unset rules should keep their defaults")
	}
	if !cfg.Lint.RespectIgnoreFile || cfg.Lint.Extension != ".md" {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoad_InvalidSeverity(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".docgraph.yaml")
	if err := os.WriteFile(p, []byte("lint:\n  rules:\n    dead-link: fatal\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := pkgconfig.Load(p, NewDefaultConfig()); err == nil {
		t.Fatal("expected invalid severity to fail")
	}
}

func TestApply(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.Apply(Overrides{
		Root:         "docs",
		Entrypoints:  []string{"a.md"},
		Depth:        "0",
		Exclude:      []string{"tmp/"},
		NoIgnoreFile: true,
		LogLevel:     "debug",
		Port:         9090,
		IndexPath:    "out.db",
	})
	if err != nil {
		t.Fatal(err)
	}
	l := cfg.Lint
	if l.Root != "docs" || l.Entrypoints[0] != "a.md" || l.Depth != 0 || l.RespectIgnoreFile {
		t.Errorf("lint = %+v", l)
	}
	if len(l.CLIExclude) != 1 || len(l.Exclude) != 0 {
		t.Errorf("cli excludes must stay separate: %+v", l)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Index.Path != "out.db" {
		t.Errorf("port = %d, index = %q", cfg.App.HTTP.Port, cfg.Index.Path)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}

	opts := cfg.Lint.EngineOptions()
	if opts.Depth != 0 || opts.Rules[models.RuleOrphanFiles] != models.SeverityError {
		t.Errorf("engine options = %+v", opts)
	}

	if err := cfg.Apply(Overrides{Depth: "x"}); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("bad depth err = %v", err)
	}
}
