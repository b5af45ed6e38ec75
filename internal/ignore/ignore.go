// Package ignore decides which files take part in the documentation graph.
//
// Patterns use gitignore syntax and come from several sources with a fixed
// precedence: CLI > project config > ignore files > defaults. Inside one
// source the last matching pattern wins; across sources the highest source
// with a matching pattern wins. Directory patterns (trailing "/") are sticky:
// files beneath a directory excluded that way can only be re-included by a
// negation from a strictly higher-precedence source.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/starford/docgraph/internal/apperr"
)

// Source identifies where a pattern came from. Higher values take precedence.
type Source int

const (
	SourceDefaults Source = iota
	SourceIgnoreFile
	SourceConfig
	SourceCLI

	numSources
)

func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceIgnoreFile:
		return "ignore-file"
	case SourceConfig:
		return "config"
	case SourceCLI:
		return "cli"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// DefaultPatterns are always excluded unless a higher source re-includes them.
var DefaultPatterns = []string{
	".git/",
	"node_modules/",
}

// Rule is one parsed pattern.
type Rule struct {
	Pattern string
	Source  Source
	Negate  bool
	DirOnly bool

	match gitignore.Pattern
}

// ParseRule validates and compiles pattern. Blank lines and comments are
// rejected; callers filter them first.
func ParseRule(src Source, pattern string) (Rule, error) {
	p := strings.TrimSpace(pattern)
	if p == "" || strings.HasPrefix(p, "#") {
		return Rule{}, fmt.Errorf("%w: empty exclude pattern", apperr.ErrConfiguration)
	}
	negate := strings.HasPrefix(p, "!")
	body := strings.TrimPrefix(p, "!")
	body = strings.TrimPrefix(body, "./")
	if body == "" || body == "/" {
		return Rule{}, fmt.Errorf("%w: exclude pattern %q matches nothing", apperr.ErrConfiguration, pattern)
	}
	for _, seg := range strings.Split(strings.Trim(body, "/"), "/") {
		if _, err := path.Match(seg, ""); err != nil {
			return Rule{}, fmt.Errorf("%w: exclude pattern %q: %v", apperr.ErrConfiguration, pattern, err)
		}
	}
	normalized := body
	if negate {
		normalized = "!" + body
	}
	return Rule{
		Pattern: pattern,
		Source:  src,
		Negate:  negate,
		DirOnly: strings.HasSuffix(body, "/"),
		match:   gitignore.ParsePattern(normalized, nil),
	}, nil
}

// RuleSet is an ordered collection of rules grouped by source.
type RuleSet struct {
	rules [numSources][]Rule
}

// NewRuleSet returns a rule set holding the default patterns.
func NewRuleSet() *RuleSet {
	rs := &RuleSet{}
	if err := rs.Add(SourceDefaults, DefaultPatterns...); err != nil {
		panic(err)
	}
	return rs
}

// Add appends patterns to src, skipping blank lines and comments.
func (rs *RuleSet) Add(src Source, patterns ...string) error {
	for _, p := range patterns {
		t := strings.TrimSpace(p)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		r, err := ParseRule(src, t)
		if err != nil {
			return err
		}
		rs.rules[src] = append(rs.rules[src], r)
	}
	return nil
}

// Rules returns all rules from lowest to highest precedence.
func (rs *RuleSet) Rules() []Rule {
	var out []Rule
	for _, rules := range rs.rules {
		out = append(out, rules...)
	}
	return out
}

// LoadFile reads gitignore-style patterns from path. A missing file yields
// no patterns.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ignore: open %s: %w", path, err)
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ignore: read %s: %w", path, err)
	}
	return patterns, nil
}

// Filter evaluates paths under root against a RuleSet.
type Filter struct {
	root  string
	rules *RuleSet
}

// NewFilter returns a Filter for files under root (an absolute path).
func NewFilter(root string, rs *RuleSet) *Filter {
	if rs == nil {
		rs = NewRuleSet()
	}
	return &Filter{root: root, rules: rs}
}

// Eligible reports whether the file at abs takes part in the graph.
func (f *Filter) Eligible(abs string) bool {
	return !f.Excluded(abs)
}

// Excluded reports whether the file at abs is excluded. Files outside the
// root are never excluded.
func (f *Filter) Excluded(abs string) bool {
	parts, ok := f.split(abs)
	if !ok {
		return false
	}
	sticky := f.stickySource(parts[:len(parts)-1])

	verdict, from := gitignore.NoMatch, Source(-1)
	for src := numSources - 1; src >= 0; src-- {
		if r := f.match(src, parts, false); r != gitignore.NoMatch {
			verdict, from = r, src
			break
		}
	}
	if sticky >= 0 {
		return !(verdict == gitignore.Include && from > sticky)
	}
	return verdict == gitignore.Exclude
}

// SkipDir reports whether a whole directory (root-relative, slash separated)
// can be pruned: it sits under a sticky exclusion that no higher source
// could override.
func (f *Filter) SkipDir(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	sticky := f.stickySource(strings.Split(rel, "/"))
	if sticky < 0 {
		return false
	}
	for src := sticky + 1; src < numSources; src++ {
		for _, r := range f.rules.rules[src] {
			if r.Negate {
				return false
			}
		}
	}
	return true
}

// stickySource returns the highest source holding a directory-level
// exclusion for any prefix of dirs, or -1.
func (f *Filter) stickySource(dirs []string) Source {
	for src := numSources - 1; src >= 0; src-- {
		for i := 1; i <= len(dirs); i++ {
			if r := f.lastMatch(src, dirs[:i], true); r != nil && r.DirOnly && !r.Negate {
				return src
			}
		}
	}
	return -1
}

func (f *Filter) match(src Source, parts []string, isDir bool) gitignore.MatchResult {
	r := f.lastMatch(src, parts, isDir)
	if r == nil {
		return gitignore.NoMatch
	}
	if r.Negate {
		return gitignore.Include
	}
	return gitignore.Exclude
}

func (f *Filter) lastMatch(src Source, parts []string, isDir bool) *Rule {
	rules := f.rules.rules[src]
	for i := len(rules) - 1; i >= 0; i-- {
		if rules[i].match.Match(parts, isDir) != gitignore.NoMatch {
			return &rules[i]
		}
	}
	return nil
}

func (f *Filter) split(abs string) ([]string, bool) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return nil, false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil, false
	}
	return strings.Split(rel, "/"), true
}
