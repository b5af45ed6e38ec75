// Package testutil provides shared test helpers for building documentation trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/docgraph/internal/storage"
)

// Tree writes files (relative slash path -> content) under a fresh temp
// directory and returns its absolute path.
func Tree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// Store builds a tree and returns a storage provider rooted at it.
func Store(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(Tree(t, files), ".md")
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Path returns the absolute path of rel inside store.
func Path(store storage.Provider, rel string) string {
	return filepath.Join(store.Root(), filepath.FromSlash(rel))
}

// WriteFile (re)writes rel inside root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
