package storage

import (
	"embed"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/catalyst-ai-dev/white-room/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrate applies every pending file in migrations/ inside its own
// transaction, tracking progress with SQLite's built-in user_version
// pragma instead of a bookkeeping table — one less table to keep in
// sync with the schema it describes.
func (s *Store) migrate() error {
	var currentVersion int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied := 0
	for i, entry := range entries {
		version := i + 1
		if version <= currentVersion {
			continue
		}
		if err := s.applyMigration(entry.Name(), version); err != nil {
			return err
		}
		applied++
	}

	if applied > 0 {
		logging.Info("applied %d migration(s), schema now at version %d", applied, len(entries))
	} else {
		logging.Debug("database schema up to date (version %d)", currentVersion)
	}
	return nil
}

// applyMigration runs filename's SQL and bumps user_version to version
// inside a single transaction, so a failing migration leaves the
// schema at its prior version rather than half-applied.
func (s *Store) applyMigration(filename string, version int) error {
	content, err := migrationsFS.ReadFile(filepath.Join("migrations", filename))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filename, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", filename, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("migration %s: %w", filename, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("record schema version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", filename, err)
	}

	logging.Debug("applied migration %d: %s", version, filename)
	return nil
}
