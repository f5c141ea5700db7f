package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the PRAGMA user_version written by schema.sql. A
// database stamped with a higher version was written by a newer build.
const schemaVersion = 1

// ErrUnsupportedSchema is returned by Open for a database this build cannot
// read: one stamped with a newer schema version, or an unstamped file that
// already holds tables of its own.
var ErrUnsupportedSchema = errors.New("unsupported database schema")

// Store holds document snapshots and recompute pass history in one SQLite
// database. All access goes through a single connection, so snapshot
// replacement and pass recording never interleave.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it with the current schema when
// it is new. ":memory:" gives a private in-memory store, as the scenario
// harness uses.
//
// File databases run in WAL mode so history can be read while a pass is
// being recorded. Foreign keys are enforced: deleting a snapshot removes its
// objects, properties and links.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := configure(db, path == ":memory:"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	if err := prepareSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func configure(db *sql.DB, inMemory bool) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !inMemory {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// prepareSchema creates the tables of an empty database and stamps its
// version in the same transaction. A database already at schemaVersion is
// left alone.
func prepareSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	switch {
	case version == schemaVersion:
		return nil
	case version > schemaVersion:
		return fmt.Errorf("%w: version %d, this build reads up to %d", ErrUnsupportedSchema, version, schemaVersion)
	}

	var tables int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
	).Scan(&tables); err != nil {
		return fmt.Errorf("inspect database: %w", err)
	}
	if tables > 0 {
		return fmt.Errorf("%w: %d unversioned table(s) present", ErrUnsupportedSchema, tables)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
