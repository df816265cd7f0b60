package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var catalogSchema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_formats (
		conversion_type TEXT NOT NULL,
		direction       TEXT NOT NULL CHECK (direction IN ('input', 'output')),
		position        INTEGER NOT NULL,
		format          TEXT NOT NULL,
		PRIMARY KEY (conversion_type, direction, position)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_meta (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		fetched_at INTEGER NOT NULL
	)`,
}

// CatalogStore persists the last fetched catalog in SQLite
type CatalogStore struct {
	db   *sql.DB
	path string
}

// DefaultCatalogStorePath returns <cacheDir>/catalog.db
func DefaultCatalogStorePath(cacheDir string) string {
	return filepath.Join(cacheDir, "catalog.db")
}

// OpenCatalogStore opens (creating if needed) the cache database at path.
// ":memory:" is accepted for tests.
func OpenCatalogStore(path string) (*CatalogStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog cache: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	for _, stmt := range catalogSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize catalog cache: %w", err)
		}
	}
	return &CatalogStore{db: db, path: path}, nil
}

// Path returns the database location
func (s *CatalogStore) Path() string {
	return s.path
}

// Close closes the database
func (s *CatalogStore) Close() error {
	return s.db.Close()
}

// Save replaces the cached catalog atomically
func (s *CatalogStore) Save(catalog Catalog, fetchedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM catalog_formats"); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO catalog_formats (conversion_type, direction, position, format) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for t, entry := range catalog {
		for i, f := range entry.InputFormats {
			if _, err := stmt.Exec(string(t), "input", i, f); err != nil {
				return fmt.Errorf("failed to store %s input format: %w", t, err)
			}
		}
		for i, f := range entry.OutputFormats {
			if _, err := stmt.Exec(string(t), "output", i, f); err != nil {
				return fmt.Errorf("failed to store %s output format: %w", t, err)
			}
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO catalog_meta (id, fetched_at) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at",
		fetchedAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to store fetch time: %w", err)
	}
	return tx.Commit()
}

// Load returns the cached catalog and when it was fetched. A nil catalog means nothing is cached.
func (s *CatalogStore) Load() (Catalog, time.Time, error) {
	var fetchedUnix int64
	err := s.db.QueryRow("SELECT fetched_at FROM catalog_meta WHERE id = 1").Scan(&fetchedUnix)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query failed: %w", err)
	}

	rows, err := s.db.Query("SELECT conversion_type, direction, format FROM catalog_formats ORDER BY conversion_type, direction, position")
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	catalog := Catalog{}
	for rows.Next() {
		var t, direction, format string
		if err := rows.Scan(&t, &direction, &format); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan failed: %w", err)
		}
		entry := catalog[ConversionType(t)]
		if direction == "input" {
			entry.InputFormats = append(entry.InputFormats, format)
		} else {
			entry.OutputFormats = append(entry.OutputFormats, format)
		}
		catalog[ConversionType(t)] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("rows iteration error: %w", err)
	}
	return catalog, time.Unix(fetchedUnix, 0), nil
}

// Clear removes the cached catalog
func (s *CatalogStore) Clear() error {
	for _, table := range []string{"catalog_formats", "catalog_meta"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear catalog cache: %w", err)
		}
	}
	return nil
}
