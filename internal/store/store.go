package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/bitheap/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Bump it when schema.sql
// changes incompatibly.
const schemaVersion = 1

// ErrIncompatible is returned by Open for a database written with a
// different schema or IR version. Its hashes and histograms cannot be
// compared with runs produced by this build.
var ErrIncompatible = errors.New("incompatible run database")

// Store records generation runs in one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at path and checks that it was
// written by a compatible build.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one connection keeps the WAL writer single and the pragmas in force
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// dsn encodes the connection settings as go-sqlite3 parameters so that
// every pooled connection gets them.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	return path + "?" + q.Encode()
}

// initialize creates the tables on a fresh database and stamps it with the
// schema and IR versions, or verifies the stamps of an existing one.
func initialize(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != 0 && version != schemaVersion {
		return fmt.Errorf("%w: schema version %d, want %d", ErrIncompatible, version, schemaVersion)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO store_meta (key, value) VALUES ('ir_version', ?)`, ir.IRVersion); err != nil {
		return fmt.Errorf("stamp ir version: %w", err)
	}

	var irVersion string
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM store_meta WHERE key = 'ir_version'`).Scan(&irVersion); err != nil {
		return fmt.Errorf("read ir version: %w", err)
	}
	if irVersion != ir.IRVersion {
		return fmt.Errorf("%w: ir version %q, want %q", ErrIncompatible, irVersion, ir.IRVersion)
	}

	if version == 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}
	return tx.Commit()
}

// IsIncompatible reports whether err came from opening a database written
// by an incompatible build.
func IsIncompatible(err error) bool {
	return errors.Is(err, ErrIncompatible)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
