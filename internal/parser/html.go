package parser

import (
	"regexp"
	"strings"
)

var (
	htmlHrefRe = regexp.MustCompile(`(?i)<a\s(?:[^>]*?\s)?href\s*=\s*["']([^"']*)["']`)
	htmlSrcRe  = regexp.MustCompile(`(?i)<img\s(?:[^>]*?\s)?src\s*=\s*["']([^"']*)["']`)
	htmlNameRe = regexp.MustCompile(`(?i)<a\s(?:[^>]*?\s)?name\s*=\s*["']([^"']+)["']`)
	htmlIDRe   = regexp.MustCompile(`(?i)<[a-z][a-z0-9-]*\s(?:[^>]*?\s)?id\s*=\s*["']([^"']+)["']`)
)

// blankComments replaces HTML comment text with spaces, preserving columns.
func blankComments(line string, in bool) (string, bool) {
	if !in && !strings.Contains(line, "<!--") {
		return line, false
	}
	b := []byte(line)
	i := 0
	for i < len(b) {
		if in {
			j := strings.Index(line[i:], "-->")
			if j < 0 {
				fill(b[i:])
				return string(b), true
			}
			fill(b[i : i+j+3])
			i += j + 3
			in = false
			continue
		}
		j := strings.Index(line[i:], "<!--")
		if j < 0 {
			break
		}
		i += j
		in = true
	}
	return string(b), in
}

func fill(b []byte) {
	for i := range b {
		b[i] = ' '
	}
}
