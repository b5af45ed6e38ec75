// Package resolve turns raw link strings into absolute file-system targets.
//
// Resolution never checks that a target exists; it only consults the file
// system to expand extension-less and directory references.
package resolve

import (
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/docgraph/internal/apperr"
)

var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// indexNames are tried, in order, when a link points at a directory.
var indexNames = []string{"README", "readme", "index"}

// FileSystem is the subset of storage.Provider the resolver needs.
type FileSystem interface {
	Root() string
	Extension() string
	Stat(path string) (fs.FileInfo, error)
}

// Result is a resolved link target.
type Result struct {
	// Path is the absolute, cleaned target; empty for external links.
	Path     string
	Fragment string
	External bool
}

// Resolver resolves links relative to their source documents.
type Resolver struct {
	fs FileSystem
}

// New returns a Resolver over fsys.
func New(fsys FileSystem) *Resolver {
	return &Resolver{fs: fsys}
}

// IsExternal reports whether raw carries a URL scheme or is protocol-relative.
func IsExternal(raw string) bool {
	return strings.HasPrefix(raw, "//") || schemeRe.MatchString(raw)
}

// SplitFragment splits raw at the first '#' that is not backslash-escaped and
// unescapes the path part.
func SplitFragment(raw string) (string, string) {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case '#':
			return unescape(raw[:i]), raw[i+1:]
		}
	}
	return unescape(raw), ""
}

// unescape drops Markdown backslash escapes in front of ASCII punctuation.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// Resolve interprets raw relative to the directory of source (an absolute
// path). Root-relative links ("/x.md") are anchored at the project root.
// It fails with apperr.ErrUnresolvableLink only when raw is not a path.
func (r *Resolver) Resolve(source, raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	if raw == "" {
		return Result{}, fmt.Errorf("%w: empty link", apperr.ErrUnresolvableLink)
	}
	if IsExternal(raw) {
		return Result{External: true}, nil
	}

	p, frag := SplitFragment(raw)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if decoded, err := url.PathUnescape(frag); err == nil {
		frag = decoded
	}
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q: %v", apperr.ErrUnresolvableLink, raw, err)
	}
	if strings.ContainsRune(decoded, 0) {
		return Result{}, fmt.Errorf("%w: %q contains NUL", apperr.ErrUnresolvableLink, raw)
	}
	if decoded == "" {
		return Result{Path: source, Fragment: frag}, nil
	}

	trailing := strings.HasSuffix(decoded, "/")
	var target string
	if strings.HasPrefix(decoded, "/") {
		target = filepath.Join(r.fs.Root(), filepath.FromSlash(decoded))
	} else {
		target = filepath.Join(filepath.Dir(source), filepath.FromSlash(decoded))
	}
	return Result{Path: r.expand(target, trailing), Fragment: frag}, nil
}

// expand applies the extension-less and directory-index fallbacks.
func (r *Resolver) expand(target string, trailing bool) string {
	ext := r.fs.Extension()
	if !trailing && filepath.Ext(target) == "" {
		if info, err := r.fs.Stat(target + ext); err == nil && !info.IsDir() {
			return target + ext
		}
	}
	info, err := r.fs.Stat(target)
	if err != nil || !info.IsDir() {
		return target
	}
	for _, name := range indexNames {
		candidate := filepath.Join(target, name+ext)
		if fi, err := r.fs.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}
	return target
}
