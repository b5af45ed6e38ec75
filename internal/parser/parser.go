// Package parser extracts front-matter, links, headings, and anchors from Markdown content.
// Block and inline structure comes from goldmark's CommonMark AST; front-matter is YAML.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/docgraph/internal/models"
)

// ErrBinary is returned for content that is not text.
var ErrBinary = errors.New("parser: binary content")

// Warning is a recoverable problem found while parsing. The document still
// contributes everything that parsed successfully.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []models.Link
	Headings    []models.Heading
	Anchors     []string
	Title       string
	Warnings    []Warning
}

// Parse extracts front-matter, links, headings, and anchors from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, ErrBinary
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	res := &Result{}
	bodyStart := splitFrontmatter(lines, res)
	res.Body = strings.Join(lines[bodyStart:], "\n")

	extract(res, []byte(res.Body), bodyStart)

	res.Title = deriveTitle(res.Frontmatter, res.Headings)
	return res, nil
}

// splitFrontmatter detects a leading YAML block between "---" delimiters and
// returns the index of the first body line. Malformed YAML is reported as a
// warning and the block is skipped without front-matter.
func splitFrontmatter(lines []string, res *Result) int {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimRight(lines[start], " \t") != "---" {
		return 0
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], " \t")
		if l == "---" || l == "..." {
			end = i
			break
		}
	}
	if end < 0 {
		// No closing delimiter: the dashes are ordinary content.
		return 0
	}

	block := strings.Join(lines[start+1:end], "\n")
	if strings.TrimSpace(block) != "" {
		var fm map[string]any
		if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
			res.Warnings = append(res.Warnings, Warning{
				Line:    start + 1,
				Message: "malformed front-matter ignored: " + firstLine(err.Error()),
			})
		} else {
			res.Frontmatter = fm
		}
	}
	return end + 1
}

// deriveTitle returns the front-matter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, headings []models.Heading) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
