// Package report renders engine output for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/models"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a --format value; empty means text.
func ParseFormat(s string) (Format, error) {
	switch v := Format(strings.ToLower(s)); v {
	case FormatText, FormatJSON:
		return v, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: invalid format %q (want text or json)", apperr.ErrConfiguration, s)
}

// palette holds the colour functions of one renderer.
type palette struct {
	file, err, warn, dim, ok func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		file: mk(color.Bold, color.Underline),
		err:  mk(color.FgRed),
		warn: mk(color.FgYellow),
		dim:  mk(color.Faint),
		ok:   mk(color.FgGreen),
	}
}

// WriteLint renders rep as grouped, aligned text:
//
//	docs/guide.md
//	  3:5  error  link target missing.md does not exist  dead-link
func WriteLint(w io.Writer, rep diagnostics.Report, useColor bool) error {
	p := newPalette(useColor)
	if len(rep.Diagnostics) == 0 {
		_, err := fmt.Fprintln(w, p.ok("no problems found"))
		return err
	}

	for _, group := range rep.ByFile() {
		if _, err := fmt.Fprintln(w, p.file(group.File)); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, d := range group.Diagnostics {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", position(d), severity(p, d.Severity), d.Message, p.dim(d.Rule))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d %s (%d %s, %d %s)",
		len(rep.Diagnostics), plural(len(rep.Diagnostics), "problem"),
		rep.Errors, plural(rep.Errors, "error"),
		rep.Warnings, plural(rep.Warnings, "warning"))
	if rep.Errors > 0 {
		summary = p.err(summary)
	} else {
		summary = p.warn(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func position(d models.Diagnostic) string {
	if d.Line == 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%d", d.Line, d.Column)
}

func severity(p palette, s models.Severity) string {
	if s == models.SeverityWarn {
		return p.warn("warn")
	}
	return p.err(strings.ToLower(string(s)))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
