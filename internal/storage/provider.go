// Package storage defines the read-only file-system abstraction over a documentation tree.
package storage

import (
	"io/fs"

	"github.com/starford/docgraph/internal/models"
)

// SkipFunc reports whether a directory (relative to the root, slash separated)
// should be pruned from a listing.
type SkipFunc func(rel string) bool

// Provider is the interface for document file operations.
type Provider interface {
	// Root returns the absolute project root.
	Root() string
	// Extension returns the document extension, including the leading dot.
	Extension() string
	// List returns every document under the root, sorted by path.
	List(skip SkipFunc) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at an absolute path.
	Read(path string) ([]byte, error)
	// Stat returns file information for an absolute path.
	Stat(path string) (fs.FileInfo, error)
	// Resolve maps a root-relative path to an absolute one, rejecting escapes.
	Resolve(rel string) (string, error)
	// Rel returns path relative to the root using forward slashes.
	Rel(path string) string
}
