// Package slug converts heading text into GitHub-style anchor slugs.
package slug

import (
	"strconv"
	"strings"
)

// Base returns the undecorated slug for text: lower-cased, restricted to
// [a-z0-9 _-], space runs collapsed to one hyphen, outer hyphens trimmed.
// Other whitespace (tabs, newlines, NBSP) is dropped like any other character.
func Base(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ':
			pendingSpace = true
			continue
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-':
		default:
			continue
		}
		if pendingSpace {
			b.WriteByte('-')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "-")
}

// Slugger produces de-duplicated slugs for one document. Calls must follow
// document order: the n-th repeat of a base slug gets the suffix "-n".
type Slugger struct {
	seen map[string]int
}

// New returns an empty Slugger.
func New() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns the next slug for text.
func (s *Slugger) Slug(text string) string {
	base := Base(text)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// All slugs texts in order with a fresh Slugger.
func All(texts []string) []string {
	s := New()
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = s.Slug(t)
	}
	return out
}
