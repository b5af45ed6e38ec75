// Package query filters graph nodes by front-matter expressions.
//
// An expression is a list of terms joined by "," or "&&"; every term must
// hold. Terms take the forms:
//
//	key         key is present
//	!key        key is absent
//	key=value   value equals, or a list value contains it
//	key!=value  negation of key=value
//
// Keys may address nested maps with dots ("author.name"). Values may be
// quoted with single or double quotes.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/graph"
)

// Op is a term operator.
type Op int

const (
	OpExists Op = iota
	OpMissing
	OpEqual
	OpNotEqual
)

// Term is a single condition.
type Term struct {
	Key   string
	Op    Op
	Value string
}

func (t Term) String() string {
	switch t.Op {
	case OpMissing:
		return "!" + t.Key
	case OpEqual:
		return t.Key + "=" + t.Value
	case OpNotEqual:
		return t.Key + "!=" + t.Value
	}
	return t.Key
}

// Expr is a conjunction of terms. The zero Expr matches everything.
type Expr []Term

func (e Expr) String() string {
	parts := make([]string, len(e))
	for i, t := range e {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

var (
	separatorRe = regexp.MustCompile(`\s*(?:,|&&)\s*`)
	keyRe       = regexp.MustCompile(`^[A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*$`)
)

// Parse compiles s. An empty string yields an empty Expr.
func Parse(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var expr Expr
	for _, raw := range separatorRe.Split(s, -1) {
		t, err := parseTerm(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: query %q: %v", apperr.ErrConfiguration, s, err)
		}
		expr = append(expr, t)
	}
	return expr, nil
}

func parseTerm(raw string) (Term, error) {
	raw = strings.TrimSpace(raw)
	var t Term
	switch {
	case raw == "":
		return t, fmt.Errorf("empty term")
	case strings.Contains(raw, "!="):
		i := strings.Index(raw, "!=")
		t = Term{Key: raw[:i], Op: OpNotEqual, Value: raw[i+2:]}
	case strings.Contains(raw, "="):
		i := strings.Index(raw, "=")
		t = Term{Key: raw[:i], Op: OpEqual, Value: raw[i+1:]}
	case strings.HasPrefix(raw, "!"):
		t = Term{Key: raw[1:], Op: OpMissing}
	default:
		t = Term{Key: raw, Op: OpExists}
	}
	t.Key = strings.TrimSpace(t.Key)
	t.Value = unquote(strings.TrimSpace(t.Value))
	if !keyRe.MatchString(t.Key) {
		return t, fmt.Errorf("invalid key %q", t.Key)
	}
	return t, nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// Match reports whether front-matter fm satisfies every term.
func (e Expr) Match(fm map[string]any) bool {
	for _, t := range e {
		if !t.match(fm) {
			return false
		}
	}
	return true
}

func (t Term) match(fm map[string]any) bool {
	v, ok := lookup(fm, t.Key)
	switch t.Op {
	case OpExists:
		return ok
	case OpMissing:
		return !ok
	case OpEqual:
		return ok && contains(v, t.Value)
	case OpNotEqual:
		return !ok || !contains(v, t.Value)
	}
	return false
}

func lookup(fm map[string]any, key string) (any, bool) {
	var cur any = fm
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func contains(v any, want string) bool {
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if scalar(item) == want {
				return true
			}
		}
		return false
	case nil:
		return want == "" || want == "null"
	}
	return scalar(v) == want
}

func scalar(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Filter returns the nodes whose documents match e, preserving order.
// Nodes without a parsed document only match an empty expression.
func Filter(nodes []*graph.Node, e Expr) []*graph.Node {
	var out []*graph.Node
	for _, n := range nodes {
		if len(e) == 0 {
			out = append(out, n)
			continue
		}
		if n.Document == nil {
			continue
		}
		if e.Match(n.Document.Frontmatter) {
			out = append(out, n)
		}
	}
	return out
}
