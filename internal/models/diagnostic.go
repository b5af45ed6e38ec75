package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Severity is the configured level of a lint rule.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityOff   Severity = "off"
)

// ParseSeverity converts a configuration string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityError, SeverityWarn, SeverityOff:
		return Severity(s), nil
	case "warning":
		return SeverityWarn, nil
	}
	return "", fmt.Errorf("invalid severity %q (want error, warn or off)", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = parsed
	return nil
}

// DiagnosticKind classifies a finding.
type DiagnosticKind string

const (
	KindOrphanFile DiagnosticKind = "orphan-file"
	KindDeadLink   DiagnosticKind = "dead-link"
	KindDeadAnchor DiagnosticKind = "dead-anchor"
	KindReadError  DiagnosticKind = "read-error"
)

// Rule identifiers as they appear in the rules configuration.
const (
	RuleOrphanFiles = "orphan-files"
	RuleDeadLink    = "dead-link"
	RuleDeadAnchor  = "dead-anchor"
	RuleReadError   = "read-error"
)

// Rule returns the configuration rule id governing k.
func (k DiagnosticKind) Rule() string {
	switch k {
	case KindOrphanFile:
		return RuleOrphanFiles
	case KindDeadLink:
		return RuleDeadLink
	case KindDeadAnchor:
		return RuleDeadAnchor
	default:
		return RuleReadError
	}
}

// Diagnostic is a single validation finding.
//
// Severity is empty until the diagnostics aggregator resolves it from
// configuration; validators never set it.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Rule     string         `json:"rule"`
	Severity Severity       `json:"severity,omitempty"`
	File     string         `json:"file"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
	Message  string         `json:"message"`
	Target   string         `json:"target,omitempty"`
	Anchor   string         `json:"anchor,omitempty"`
}
