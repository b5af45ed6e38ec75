package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the project root
	ext  string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root, ext string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FS{root: abs, ext: ext}, nil
}

// Root returns the absolute project root.
func (f *FS) Root() string { return f.root }

// Extension returns the document extension.
func (f *FS) Extension() string { return f.ext }

// Resolve maps a relative path onto the root and rejects any result that
// escapes it (directory traversal).
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// Rel returns path relative to the root with forward slashes. Paths outside
// the root are returned unchanged.
func (f *FS) Rel(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// List walks the root and returns metadata for every document file.
// Directories are pruned only by skip, so defaults such as .git stay
// overridable by the caller's exclusion rules.
func (f *FS) List(skip SkipFunc) ([]models.DocumentMetadata, error) {
	var out []models.DocumentMetadata
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p == f.root {
				return nil
			}
			if skip != nil && skip(f.Rel(p)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), f.ext) {
			return nil
		}
		out = append(out, models.DocumentMetadata{
			Path:    p,
			RelPath: f.Rel(p),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns the raw bytes of a file.
func (f *FS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", f.Rel(path), apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", f.Rel(path), err)
	}
	return data, nil
}

// Stat returns file information for path.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: stat %s: %w", f.Rel(path), apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: stat %s: %w", f.Rel(path), err)
	}
	return info, nil
}

// IsDocument reports whether path carries the document extension.
func IsDocument(p Provider, path string) bool {
	return strings.EqualFold(filepath.Ext(path), p.Extension())
}
