// Package storage persists editor snapshots to SQLite, adapting the
// teacher's pkg/database into spec.md's supplemented persistence
// feature (SPEC_FULL.md §10): documents survive a server restart
// instead of living only in the engine's in-memory map.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PersistedDocument is a point-in-time snapshot of one editor's content.
type PersistedDocument struct {
	EditorID  string
	Content   string
	Version   int
	UpdatedAt time.Time
}

// Store wraps a SQLite connection holding persisted documents.
type Store struct {
	db *sql.DB
}

// Open connects to uri (a sqlite3 DSN, e.g. "file:data.db" or ":memory:")
// and applies any pending migrations.
func Open(uri string) (*Store, error) {
	db, err := sql.Open("sqlite3", uri)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load retrieves a document, returning (nil, nil) if it doesn't exist.
func (s *Store) Load(editorID string) (*PersistedDocument, error) {
	var doc PersistedDocument
	var updatedAtUnix int64

	err := s.db.QueryRow(
		"SELECT id, content, version, updated_at FROM document WHERE id = ?",
		editorID,
	).Scan(&doc.EditorID, &doc.Content, &doc.Version, &updatedAtUnix)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document %s: %w", editorID, err)
	}
	doc.UpdatedAt = time.Unix(updatedAtUnix, 0)
	return &doc, nil
}

// Store upserts a document snapshot.
func (s *Store) Store(doc PersistedDocument) error {
	query := `
	INSERT INTO document (id, content, version, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		version = excluded.version,
		updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, doc.EditorID, doc.Content, doc.Version, doc.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store document %s: %w", doc.EditorID, err)
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(editorID string) error {
	if _, err := s.db.Exec("DELETE FROM document WHERE id = ?", editorID); err != nil {
		return fmt.Errorf("delete document %s: %w", editorID, err)
	}
	return nil
}

// Count returns the total number of persisted documents, used by
// cmd/server's stats endpoint (SPEC_FULL.md §10).
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM document").Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// IDs returns every persisted document id, used to warm the engine's
// editor registry on startup.
func (s *Store) IDs() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM document")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
