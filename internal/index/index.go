package index

import (
	"github.com/starford/docgraph/internal/models"
)

// Exporter is the write side used by the lint pipeline.
type Exporter interface {
	Replace(s Snapshot) error
}

// Reader defines the read-only queries over an exported snapshot.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Reader interface {
	Document(path string) (*DocumentRow, error)
	Backlinks(target string) ([]string, error)
	Orphans() ([]string, error)
	Diagnostics(file string) ([]models.Diagnostic, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies both interfaces at compile time.
var (
	_ Exporter = (*DB)(nil)
	_ Reader   = (*DB)(nil)
)
