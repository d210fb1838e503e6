package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meigma/tarindex/internal/idxtype"
)

// Tx is a write transaction against the store. Nothing it writes is visible
// to readers until Commit.
type Tx struct {
	tx     *sql.Tx
	insert *sql.Stmt
	done   bool
}

// Begin starts a write transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// FindArchiveByPath returns the archive record stored for path.
func (t *Tx) FindArchiveByPath(ctx context.Context, path string) (idxtype.ArchiveRecord, bool, error) {
	return findArchiveByPath(ctx, t.tx, path)
}

// NextArchiveID returns max(archive_id)+1, or 1 for an empty store.
func (t *Tx) NextArchiveID(ctx context.Context) (int64, error) {
	return nextArchiveID(ctx, t.tx)
}

// UpsertArchive inserts rec, or updates the modification time of the record
// with the same path.
func (t *Tx) UpsertArchive(ctx context.Context, rec idxtype.ArchiveRecord) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO archives (archive_id, path, modified_ns) VALUES (?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET modified_ns = excluded.modified_ns`,
		rec.ID, rec.Path, rec.ModTime.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert archive %s: %w", rec.Path, err)
	}
	return nil
}

// DeleteMembersForArchive removes every member row of an archive.
func (t *Tx) DeleteMembersForArchive(ctx context.Context, archiveID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM members WHERE archive_id = ?`, archiveID); err != nil {
		return fmt.Errorf("delete members of %d: %w", archiveID, err)
	}
	return nil
}

// InsertMember records one member. A second row with the same archive and
// name replaces the first.
func (t *Tx) InsertMember(ctx context.Context, rec idxtype.MemberRecord) error {
	if t.insert == nil {
		stmt, err := t.tx.PrepareContext(ctx, `
			INSERT INTO members (archive_id, member_name, data_offset, data_size) VALUES (?, ?, ?, ?)
			ON CONFLICT (archive_id, member_name) DO UPDATE
			SET data_offset = excluded.data_offset, data_size = excluded.data_size`)
		if err != nil {
			return fmt.Errorf("prepare member insert: %w", err)
		}
		t.insert = stmt
	}
	if _, err := t.insert.ExecContext(ctx, rec.ArchiveID, rec.Name, rec.Offset, rec.Size); err != nil {
		return fmt.Errorf("insert member %s: %w", rec.Name, err)
	}
	return nil
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.closeStmt()
	return t.tx.Commit()
}

// Rollback discards the transaction. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.closeStmt()
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *Tx) closeStmt() {
	if t.insert != nil {
		_ = t.insert.Close()
		t.insert = nil
	}
}
