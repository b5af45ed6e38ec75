package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, diagnostics.ExitOK},
		{"findings", errFindings, diagnostics.ExitFindings},
		{"configuration", fmt.Errorf("load: %w", apperr.ErrConfiguration), diagnostics.ExitConfiguration},
		{"exit coder", cli.Exit("custom", 4), 4},
		{"other", errors.New("disk on fire"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	cases := map[string][]string{
		"unknown subcommand flag": {"docgraph", "lint", "--bogus"},
		"unknown root flag":       {"docgraph", "--bogus", "lint"},
		"unknown command":         {"docgraph", "nosuchcmd"},
		"help for unknown":        {"docgraph", "help", "nosuchcmd"},
		"bad flag value":          {"docgraph", "serve", "--port", "abc"},
		"negative depth":          {"docgraph", "--depth=-3", "lint"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := newCommand()
			cmd.Writer, cmd.ErrWriter = io.Discard, io.Discard
			if got := run(context.Background(), cmd, args); got != diagnostics.ExitConfiguration {
				t.Errorf("run(%v) = %d, want %d", args, got, diagnostics.ExitConfiguration)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	cmd := newCommand()
	cmd.Writer, cmd.ErrWriter = io.Discard, io.Discard
	if got := run(context.Background(), cmd, []string{"docgraph", "help", "lint"}); got != diagnostics.ExitOK {
		t.Errorf("help exit = %d, want %d", got, diagnostics.ExitOK)
	}
}
