package parser

import (
	"regexp"
	"strings"
)

var quoteRe = regexp.MustCompile(`^ {0,3}>[ \t]?`)

// stripQuotes removes blockquote markers and returns their combined width.
func stripQuotes(line string) (int, string) {
	offset := 0
	for {
		loc := quoteRe.FindStringIndex(line[offset:])
		if loc == nil {
			return offset, line[offset:]
		}
		offset += loc[1]
	}
}

func closesFence(line, fence string) bool {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 {
		return false
	}
	t := strings.TrimRight(line[indent:], " \t\r")
	if len(t) < len(fence) {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != fence[0] {
			return false
		}
	}
	return true
}
