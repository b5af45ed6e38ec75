package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/diagnostics"
	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/models"
)

// Snapshot is one completed lint run to export.
type Snapshot struct {
	Root   string
	Graph  *graph.Graph
	Report diagnostics.Report
	// Rel maps absolute paths to the root-relative form stored in the DB.
	Rel func(path string) string
}

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path        string
	Title       string
	Checksum    string
	Depth       int
	Incoming    int
	Outgoing    int
	Entrypoint  bool
	Frontmatter map[string]any
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// Replace swaps the stored snapshot for s within a single transaction.
func (db *DB) Replace(s Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"documents", "links", "diagnostics", "runs"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("index: clear %s: %w", table, err)
		}
	}
	if err := ftsReset(tx); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}

	if err := insertDocuments(tx, s); err != nil {
		return err
	}
	if err := insertLinks(tx, s); err != nil {
		return err
	}
	if err := insertDiagnostics(tx, s.Report.Diagnostics); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO runs (id, root, errors, warnings, exported_at) VALUES (1, ?, ?, ?, ?)`,
		s.Root, s.Report.Errors, s.Report.Warnings, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: insert run: %w", err)
	}
	return tx.Commit()
}

func insertDocuments(tx *sql.Tx, s Snapshot) error {
	stmt, err := tx.Prepare(`
		INSERT INTO documents (path, title, checksum, depth, incoming, outgoing, entrypoint, frontmatter, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare document insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range s.Graph.Nodes() {
		var title, checksum, body string
		fm := []byte("{}")
		if d := n.Document; d != nil {
			title, checksum, body = d.Title, d.Checksum, string(d.Content)
			if len(d.Frontmatter) > 0 {
				if fm, err = json.Marshal(d.Frontmatter); err != nil {
					return fmt.Errorf("index: encode front-matter of %s: %w", n.RelPath, err)
				}
			}
		}
		if _, err := stmt.Exec(n.RelPath, title, checksum, n.Depth, n.Incoming, n.Outgoing, n.Entrypoint, string(fm), body); err != nil {
			return fmt.Errorf("index: insert document %s: %w", n.RelPath, err)
		}
		if err := ftsInsert(tx, n.RelPath, title, body); err != nil {
			return err
		}
	}
	return nil
}

func insertLinks(tx *sql.Tx, s Snapshot) error {
	stmt, err := tx.Prepare(`
		INSERT INTO links (source, raw, target, fragment, kind, line, col, external)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range s.Graph.Links() {
		target := ""
		if l.Target != "" {
			target = s.Rel(l.Target)
		}
		if _, err := stmt.Exec(s.Rel(l.Source), l.Raw, target, l.Fragment, string(l.Kind), l.Line, l.Column, l.External); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	return nil
}

func insertDiagnostics(tx *sql.Tx, diags []models.Diagnostic) error {
	stmt, err := tx.Prepare(`
		INSERT INTO diagnostics (kind, rule, severity, file, line, col, message, target, anchor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare diagnostic insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.Exec(string(d.Kind), d.Rule, string(d.Severity), d.File, d.Line, d.Column, d.Message, d.Target, d.Anchor); err != nil {
			return fmt.Errorf("index: insert diagnostic: %w", err)
		}
	}
	return nil
}

// Document returns the stored row for a root-relative path.
func (db *DB) Document(path string) (*DocumentRow, error) {
	var r DocumentRow
	var fm string
	err := db.conn.QueryRow(`
		SELECT path, title, checksum, depth, incoming, outgoing, entrypoint, frontmatter
		FROM documents WHERE path = ?
	`, path).Scan(&r.Path, &r.Title, &r.Checksum, &r.Depth, &r.Incoming, &r.Outgoing, &r.Entrypoint, &fm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: document: %w", err)
	}
	if err := json.Unmarshal([]byte(fm), &r.Frontmatter); err != nil {
		return nil, fmt.Errorf("index: decode front-matter of %s: %w", path, err)
	}
	return &r, nil
}

// Backlinks returns the distinct documents that link to target.
func (db *DB) Backlinks(target string) ([]string, error) {
	return db.strings(`SELECT DISTINCT source FROM links WHERE target = ? AND source != target ORDER BY source`, target)
}

// Orphans returns files reported as orphans in the stored snapshot.
func (db *DB) Orphans() ([]string, error) {
	return db.strings(`SELECT file FROM diagnostics WHERE kind = ? ORDER BY file`, string(models.KindOrphanFile))
}

// Diagnostics returns the stored diagnostics, optionally restricted to file.
func (db *DB) Diagnostics(file string) ([]models.Diagnostic, error) {
	q := `SELECT kind, rule, severity, file, line, col, message, target, anchor FROM diagnostics`
	var args []any
	if file != "" {
		q += ` WHERE file = ?`
		args = append(args, file)
	}
	q += ` ORDER BY file, line, col, kind`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: diagnostics: %w", err)
	}
	defer rows.Close()

	var out []models.Diagnostic
	for rows.Next() {
		var d models.Diagnostic
		var kind, severity string
		if err := rows.Scan(&kind, &d.Rule, &severity, &d.File, &d.Line, &d.Column, &d.Message, &d.Target, &d.Anchor); err != nil {
			return nil, err
		}
		d.Kind = models.DiagnosticKind(kind)
		d.Severity = models.Severity(severity)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (db *DB) strings(query string, args ...any) ([]string, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
