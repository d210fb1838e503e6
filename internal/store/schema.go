package store

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "archives and members",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS archives (
				archive_id  INTEGER PRIMARY KEY,
				path        TEXT    NOT NULL UNIQUE,
				modified_ns INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS members (
				archive_id  INTEGER NOT NULL REFERENCES archives (archive_id),
				member_name TEXT    NOT NULL,
				data_offset INTEGER NOT NULL CHECK (data_offset >= 0),
				data_size   INTEGER NOT NULL CHECK (data_size >= 0),
				PRIMARY KEY (archive_id, member_name)
			) WITHOUT ROWID`,
			`CREATE INDEX IF NOT EXISTS members_member_name ON members (member_name)`,
		},
	},
}

// SchemaVersion is the schema version written by this package.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

func (s *Store) version(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// migrate brings the schema up to SchemaVersion. An up-to-date store is left
// untouched.
func (s *Store) migrate(ctx context.Context) error {
	current, err := s.version(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > SchemaVersion() {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion())
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		s.log().Debug("applied schema migration", "path", s.path, "version", m.version)
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// querier is the subset of *sql.DB and *sql.Tx used by the record queries.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
