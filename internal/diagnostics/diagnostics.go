// Package diagnostics merges validator findings into a final report:
// severities are resolved from configuration, duplicates dropped and the
// result sorted for stable output.
package diagnostics

import (
	"sort"

	"github.com/starford/docgraph/internal/models"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFindings      = 1
	ExitConfiguration = 2
)

// Rules maps rule ids to their configured severity. Missing rules default
// to error.
type Rules map[string]models.Severity

// DefaultRules returns the built-in severities.
func DefaultRules() Rules {
	return Rules{
		models.RuleOrphanFiles: models.SeverityError,
		models.RuleDeadLink:    models.SeverityError,
		models.RuleDeadAnchor:  models.SeverityError,
	}
}

// Severity returns the effective severity of rule. Read errors cannot be
// downgraded.
func (r Rules) Severity(rule string) models.Severity {
	if rule == models.RuleReadError {
		return models.SeverityError
	}
	if s, ok := r[rule]; ok && s != "" {
		return s
	}
	return models.SeverityError
}

// Report is the aggregated outcome of a lint run.
type Report struct {
	Diagnostics []models.Diagnostic `json:"diagnostics"`
	Errors      int                 `json:"errors"`
	Warnings    int                 `json:"warnings"`
}

type key struct {
	kind    models.DiagnosticKind
	file    string
	line    int
	column  int
	message string
}

// Aggregate resolves severities, drops findings of disabled rules and
// duplicates, and sorts by file, position and kind.
func Aggregate(diags []models.Diagnostic, rules Rules) Report {
	seen := make(map[key]struct{}, len(diags))
	rep := Report{Diagnostics: []models.Diagnostic{}}
	for _, d := range diags {
		if d.Rule == "" {
			d.Rule = d.Kind.Rule()
		}
		d.Severity = rules.Severity(d.Rule)
		if d.Severity == models.SeverityOff {
			continue
		}
		k := key{d.Kind, d.File, d.Line, d.Column, d.Message}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		switch d.Severity {
		case models.SeverityError:
			rep.Errors++
		case models.SeverityWarn:
			rep.Warnings++
		}
		rep.Diagnostics = append(rep.Diagnostics, d)
	}

	sort.SliceStable(rep.Diagnostics, func(i, j int) bool {
		a, b := rep.Diagnostics[i], rep.Diagnostics[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Kind < b.Kind
	})
	return rep
}

// ExitCode returns ExitFindings when any error-severity diagnostic is
// present. Warnings never raise the exit status.
func (r Report) ExitCode() int {
	if r.Errors > 0 {
		return ExitFindings
	}
	return ExitOK
}

// FileGroup holds the diagnostics of one file.
type FileGroup struct {
	File        string
	Diagnostics []models.Diagnostic
}

// ByFile groups the sorted diagnostics by file, preserving order.
func (r Report) ByFile() []FileGroup {
	var out []FileGroup
	for _, d := range r.Diagnostics {
		if n := len(out); n > 0 && out[n-1].File == d.File {
			out[n-1].Diagnostics = append(out[n-1].Diagnostics, d)
			continue
		}
		out = append(out, FileGroup{File: d.File, Diagnostics: []models.Diagnostic{d}})
	}
	return out
}
